// Package metrics provides harness outcome collection and aggregation.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FailureClass says why an attempt did not pass.
type FailureClass string

const (
	// FailureNone marks a passing attempt.
	FailureNone FailureClass = ""
	// FailureMismatch marks a completed request whose answer broke the expectation.
	FailureMismatch FailureClass = "mismatch"
	// FailureTimeout marks an attempt cut by its deadline.
	FailureTimeout FailureClass = "timeout"
	// FailureCanceled marks an attempt aborted by batch cancellation.
	FailureCanceled FailureClass = "canceled"
	// FailureTransport marks a network level failure.
	FailureTransport FailureClass = "transport"
)

// OutcomeMetric captures one harness attempt
type OutcomeMetric struct {
	CaseID     string
	Endpoint   string
	Passed     bool
	HTTPStatus int // zero when no response arrived
	Duration   time.Duration
	Failure    FailureClass
	Timestamp  time.Time
}

// SummaryMetric provides aggregate statistics across all attempts
type SummaryMetric struct {
	TotalDuration   time.Duration
	TotalAttempts   int
	Passed          int
	Failed          int
	Mismatches      int
	Timeouts        int
	Canceled        int
	TransportErrors int
	MeanAttempt     time.Duration
	SlowestAttempt  time.Duration
	SlowestCaseID   string
}

// Collector interface for metrics collection
type Collector interface {
	Start(ctx context.Context) error
	Stop() error
	RecordOutcome(metric *OutcomeMetric)
	GetOutcomeMetrics() []OutcomeMetric
	GetSummary() SummaryMetric
	Reset()
}

// collector implements Collector interface
type collector struct {
	log       logrus.FieldLogger
	mu        sync.RWMutex
	outcomes  []OutcomeMetric
	startTime time.Time
}

// NewCollector creates a new metrics collector
func NewCollector(log logrus.FieldLogger) Collector {
	return &collector{
		log:      log.WithField("component", "metrics_collector"),
		outcomes: make([]OutcomeMetric, 0, 16),
	}
}

func (c *collector) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()

	c.log.Debug("metrics collector started")

	return nil
}

func (c *collector) Stop() error {
	c.log.Debug("metrics collector stopped")

	return nil
}

func (c *collector) RecordOutcome(metric *OutcomeMetric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, *metric)
}

// Reset drops recorded attempts and restarts the wall clock.
func (c *collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = c.outcomes[:0]
	c.startTime = time.Now()
}

func (c *collector) GetOutcomeMetrics() []OutcomeMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	// Return copy to avoid race conditions
	result := make([]OutcomeMetric, len(c.outcomes))
	copy(result, c.outcomes)
	return result
}

func (c *collector) GetSummary() SummaryMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := SummaryMetric{
		TotalAttempts: len(c.outcomes),
	}

	if !c.startTime.IsZero() {
		summary.TotalDuration = time.Since(c.startTime)
	}

	var total time.Duration
	for _, om := range c.outcomes {
		total += om.Duration
		if om.Duration > summary.SlowestAttempt {
			summary.SlowestAttempt = om.Duration
			summary.SlowestCaseID = om.CaseID
		}

		if om.Passed {
			summary.Passed++
			continue
		}

		summary.Failed++
		switch om.Failure {
		case FailureTimeout:
			summary.Timeouts++
		case FailureCanceled:
			summary.Canceled++
		case FailureTransport:
			summary.TransportErrors++
		default:
			summary.Mismatches++
		}
	}

	if len(c.outcomes) > 0 {
		summary.MeanAttempt = total / time.Duration(len(c.outcomes))
	}

	return summary
}

// Compile-time interface compliance check
var _ Collector = (*collector)(nil)
