package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/backend"
	"github.com/ethpandaops/jwtprobe/internal/config"
	"github.com/ethpandaops/jwtprobe/internal/harness/metrics"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAlreadyRunning is returned when a batch is requested while another is in progress.
	ErrAlreadyRunning = errors.New("a batch run is already in progress")
	// ErrUnknownCase is returned for a case id that is not in the catalogue.
	ErrUnknownCase = errors.New("unknown case id")
	// ErrDuplicateCase is returned when the configured cases repeat an id.
	ErrDuplicateCase = errors.New("duplicate case id")
)

// Transport posts a JSON body to a backend operation and returns the raw
// answer. Only transport failures are errors.
type Transport interface {
	Post(ctx context.Context, path string, body any) (*backend.RawResponse, error)
}

// TestOutcome is the observed result of one case against one endpoint.
type TestOutcome struct {
	CaseID     string        `json:"case_id" yaml:"case_id"`
	Endpoint   string        `json:"endpoint" yaml:"endpoint"`
	HTTPStatus int           `json:"http_status,omitempty" yaml:"http_status,omitempty"` // zero when no response arrived
	Body       any           `json:"body,omitempty" yaml:"body,omitempty"`
	Passed     bool          `json:"passed" yaml:"passed"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Completed reports whether an HTTP status was observed.
func (o TestOutcome) Completed() bool {
	return o.HTTPStatus != 0
}

// ElapsedMs returns the attempt duration in whole milliseconds.
func (o TestOutcome) ElapsedMs() int64 {
	return o.Elapsed.Milliseconds()
}

// Row pairs a catalogue case with its live outcome, nil when it has not run.
type Row struct {
	Case    MalformedTokenCase
	Outcome *TestOutcome
}

// Config is resolved by the hosting application before the harness is built.
type Config struct {
	Endpoint string
	Secret   string
	Timeout  time.Duration
	Delay    time.Duration
	// Cases defaults to Catalogue().
	Cases []MalformedTokenCase
}

// Settings are the operator-adjustable per-run parameters.
type Settings struct {
	Endpoint string
	Secret   string
	Timeout  time.Duration
}

// Option configures a Harness.
type Option func(*Harness)

// WithCollector records every attempt in c.
func WithCollector(c metrics.Collector) Option {
	return func(h *Harness) {
		h.metrics = c
	}
}

// WithOutcomeHook calls fn after every attempt, from the goroutine that ran it.
func WithOutcomeHook(fn func(MalformedTokenCase, TestOutcome)) Option {
	return func(h *Harness) {
		h.onOutcome = fn
	}
}

// Harness runs malformed token cases against the backend.
type Harness struct {
	log       logrus.FieldLogger
	transport Transport
	cases     []MalformedTokenCase
	index     map[string]int
	sequencer *Sequencer
	store     *ResultStore
	metrics   metrics.Collector
	onOutcome func(MalformedTokenCase, TestOutcome)

	mu       sync.RWMutex
	settings Settings

	running atomic.Bool
}

// New creates a harness over cfg.Cases (or the built-in catalogue).
func New(log logrus.FieldLogger, cfg Config, transport Transport, opts ...Option) (*Harness, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.EndpointDecode
	}

	if err := config.ValidateEndpoint(cfg.Endpoint); err != nil {
		return nil, err
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultAttemptTimeout
	}

	cases := cfg.Cases
	if len(cases) == 0 {
		cases = Catalogue()
	}

	index := make(map[string]int, len(cases))
	for i, c := range cases {
		if _, exists := index[c.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCase, c.ID)
		}
		index[c.ID] = i
	}

	h := &Harness{
		log:       log.WithField("component", "malformed_token_harness"),
		transport: transport,
		cases:     append([]MalformedTokenCase(nil), cases...),
		index:     index,
		sequencer: NewSequencer(cfg.Delay),
		store:     NewResultStore(),
		settings: Settings{
			Endpoint: cfg.Endpoint,
			Secret:   cfg.Secret,
			Timeout:  cfg.Timeout,
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Cases returns a copy of the catalogue in run order.
func (h *Harness) Cases() []MalformedTokenCase {
	return append([]MalformedTokenCase(nil), h.cases...)
}

// Settings returns the current per-run settings.
func (h *Harness) Settings() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// SetEndpoint selects decode or verify for subsequent attempts.
func (h *Harness) SetEndpoint(endpoint string) error {
	if err := config.ValidateEndpoint(endpoint); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.Endpoint = endpoint

	return nil
}

// SetSecret sets the secret sent to verify.
func (h *Harness) SetSecret(secret string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.Secret = secret
}

// SetTimeout sets the per-attempt deadline; non-positive values restore the default.
func (h *Harness) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = config.DefaultAttemptTimeout
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings.Timeout = timeout
}

// Running reports whether a batch is in progress.
func (h *Harness) Running() bool {
	return h.running.Load()
}

// Outcomes returns the live outcomes ordered by case id.
func (h *Harness) Outcomes() []TestOutcome {
	return h.store.Sorted()
}

// Rows returns every catalogue case with its live outcome, ordered by case id.
func (h *Harness) Rows() []Row {
	rows := make([]Row, 0, len(h.cases))
	for _, c := range h.cases {
		row := Row{Case: c}
		if outcome, ok := h.store.Get(c.ID); ok {
			row.Outcome = &outcome
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Case.ID < rows[j].Case.ID
	})

	return rows
}

// RunOne attempts a single case with the settings current at call time and
// stores the outcome. Every failure is captured in the returned outcome.
func (h *Harness) RunOne(ctx context.Context, c MalformedTokenCase) TestOutcome {
	settings := h.Settings()

	outcome := TestOutcome{
		CaseID:   c.ID,
		Endpoint: settings.Endpoint,
	}

	var body any = backend.TokenRequest{Token: c.Token}
	if settings.Endpoint == config.EndpointVerify {
		body = backend.VerifyRequest{Token: c.Token, Secret: settings.Secret}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := h.post(attemptCtx, settings.Endpoint, body)
	outcome.Elapsed = time.Since(start)

	failure := metrics.FailureNone

	if err != nil {
		outcome.Error, failure = describeFailure(ctx, attemptCtx, err, settings.Timeout)
	} else {
		outcome.HTTPStatus = resp.StatusCode
		outcome.Body = parseBody(resp.Body)
		outcome.Passed = Classify(c.Expected, resp.StatusCode, outcome.Body)

		if !outcome.Passed {
			failure = metrics.FailureMismatch
		}
	}

	h.store.Upsert(outcome)
	h.record(outcome, failure)

	h.log.WithFields(logrus.Fields{
		"case":     c.ID,
		"endpoint": outcome.Endpoint,
		"status":   outcome.HTTPStatus,
		"passed":   outcome.Passed,
		"duration": outcome.Elapsed,
		"error":    outcome.Error,
	}).Debug("case executed")

	if h.onOutcome != nil {
		h.onOutcome(c, outcome)
	}

	return outcome
}

// RunByID re-runs one case; allowed while a batch is in progress.
func (h *Harness) RunByID(ctx context.Context, id string) (TestOutcome, error) {
	i, ok := h.index[id]
	if !ok {
		return TestOutcome{}, fmt.Errorf("%w: %s", ErrUnknownCase, id)
	}

	return h.RunOne(ctx, h.cases[i]), nil
}

// RunAll clears the store and the collector, then runs every case
// sequentially in catalogue order. Cancelling ctx stops the batch after the
// in-flight attempt.
func (h *Harness) RunAll(ctx context.Context) ([]TestOutcome, error) {
	if !h.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer h.running.Store(false)

	h.store.Clear()
	if h.metrics != nil {
		h.metrics.Reset()
	}

	err := h.runBatch(ctx, h.cases)

	return h.store.Sorted(), err
}

// RunSubset runs the given cases in catalogue order without clearing
// outcomes of other cases. It shares the busy flag with RunAll.
func (h *Harness) RunSubset(ctx context.Context, ids []string) ([]TestOutcome, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := h.index[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCase, id)
		}
		wanted[id] = true
	}

	if !h.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer h.running.Store(false)

	selected := make([]MalformedTokenCase, 0, len(wanted))
	for _, c := range h.cases {
		if wanted[c.ID] {
			selected = append(selected, c)
		}
	}

	err := h.runBatch(ctx, selected)

	outcomes := make([]TestOutcome, 0, len(selected))
	for _, outcome := range h.store.Sorted() {
		if wanted[outcome.CaseID] {
			outcomes = append(outcomes, outcome)
		}
	}

	return outcomes, err
}

func (h *Harness) runBatch(ctx context.Context, cases []MalformedTokenCase) error {
	start := time.Now()

	h.log.WithFields(logrus.Fields{
		"cases":    len(cases),
		"endpoint": h.Settings().Endpoint,
		"delay":    h.sequencer.Delay,
	}).Info("running malformed token cases")

	err := h.sequencer.Run(ctx, len(cases), func(ctx context.Context, i int) {
		h.RunOne(ctx, cases[i])
	})

	fields := logrus.Fields{
		"cases":    len(cases),
		"stored":   h.store.Len(),
		"duration": time.Since(start),
	}

	if err != nil {
		h.log.WithFields(fields).WithError(err).Warn("batch stopped before completion")
		return fmt.Errorf("batch interrupted: %w", err)
	}

	h.log.WithFields(fields).Info("batch complete")

	return nil
}

// post shields the harness from a panicking transport.
func (h *Harness) post(ctx context.Context, endpoint string, body any) (resp *backend.RawResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("transport panic: %v", r) //nolint:err113 // carries the recovered value
		}
	}()

	return h.transport.Post(ctx, endpoint, body)
}

func (h *Harness) record(outcome TestOutcome, failure metrics.FailureClass) {
	if h.metrics == nil {
		return
	}

	h.metrics.RecordOutcome(&metrics.OutcomeMetric{
		CaseID:     outcome.CaseID,
		Endpoint:   outcome.Endpoint,
		Passed:     outcome.Passed,
		HTTPStatus: outcome.HTTPStatus,
		Duration:   outcome.Elapsed,
		Failure:    failure,
		Timestamp:  time.Now(),
	})
}

// describeFailure turns a transport error into the stored error detail.
func describeFailure(parent, attempt context.Context, err error, timeout time.Duration) (string, metrics.FailureClass) {
	switch {
	case parent.Err() != nil:
		return "canceled", metrics.FailureCanceled
	case errors.Is(attempt.Err(), context.DeadlineExceeded):
		return fmt.Sprintf("timeout %dms", timeout.Milliseconds()), metrics.FailureTimeout
	default:
		return err.Error(), metrics.FailureTransport
	}
}

// parseBody returns the decoded JSON value, the raw text when the body is
// not JSON, or nil when the body is empty.
func parseBody(data []byte) any {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return string(data)
	}

	return parsed
}
