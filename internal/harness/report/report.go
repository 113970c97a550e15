// Package report exports a harness run as YAML or JSON.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/ethpandaops/jwtprobe/internal/harness/metrics"
	"gopkg.in/yaml.v3"
)

var errUnsupportedFormat = errors.New("unsupported report format")

// Format selects the report encoding.
type Format string

const (
	// FormatYAML encodes with gopkg.in/yaml.v3.
	FormatYAML Format = "yaml"
	// FormatJSON encodes indented JSON.
	FormatJSON Format = "json"
)

// ParseFormat accepts yaml, yml and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, s)
	}
}

// FormatFromPath picks the format from a file extension, defaulting to YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}

	return FormatYAML
}

// Report is the exported view of one run.
type Report struct {
	APIBase    string    `json:"api_base" yaml:"api_base"`
	Endpoint   string    `json:"endpoint" yaml:"endpoint"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Outcomes   []Outcome `json:"outcomes" yaml:"outcomes"`
	Attempts   []Attempt `json:"attempts" yaml:"attempts"`
	Summary    Summary   `json:"summary" yaml:"summary"`
}

// Attempt is one recorded request, re-runs included, in the order it finished.
type Attempt struct {
	CaseID     string    `json:"case_id" yaml:"case_id"`
	Endpoint   string    `json:"endpoint" yaml:"endpoint"`
	Passed     bool      `json:"passed" yaml:"passed"`
	HTTPStatus int       `json:"http_status,omitempty" yaml:"http_status,omitempty"`
	ElapsedMs  int64     `json:"elapsed_ms" yaml:"elapsed_ms"`
	Failure    string    `json:"failure,omitempty" yaml:"failure,omitempty"`
	At         time.Time `json:"at" yaml:"at"`
}

// Outcome is one case result with its catalogue context.
type Outcome struct {
	CaseID     string `json:"case_id" yaml:"case_id"`
	Reason     string `json:"reason" yaml:"reason"`
	Expected   string `json:"expected" yaml:"expected"`
	Endpoint   string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Ran        bool   `json:"ran" yaml:"ran"`
	Passed     bool   `json:"passed" yaml:"passed"`
	HTTPStatus int    `json:"http_status,omitempty" yaml:"http_status,omitempty"`
	Body       any    `json:"body,omitempty" yaml:"body,omitempty"`
	ElapsedMs  int64  `json:"elapsed_ms" yaml:"elapsed_ms"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary holds the aggregate counts of a run.
type Summary struct {
	Total           int   `json:"total" yaml:"total"`
	Passed          int   `json:"passed" yaml:"passed"`
	Failed          int   `json:"failed" yaml:"failed"`
	NotRun          int   `json:"not_run" yaml:"not_run"`
	Timeouts        int   `json:"timeouts" yaml:"timeouts"`
	TransportErrors int   `json:"transport_errors" yaml:"transport_errors"`
	MeanAttemptMs   int64 `json:"mean_attempt_ms" yaml:"mean_attempt_ms"`
}

// Build assembles a report from harness rows and the collected attempts.
func Build(apiBase, endpoint string, startedAt time.Time, rows []harness.Row, collector metrics.Collector) *Report {
	var (
		attempts = collector.GetOutcomeMetrics()
		summary  = collector.GetSummary()
	)

	r := &Report{
		APIBase:    apiBase,
		Endpoint:   endpoint,
		StartedAt:  startedAt.UTC(),
		FinishedAt: time.Now().UTC(),
		Outcomes:   make([]Outcome, 0, len(rows)),
		Attempts:   make([]Attempt, 0, len(attempts)),
		Summary: Summary{
			Total:           len(rows),
			Timeouts:        summary.Timeouts,
			TransportErrors: summary.TransportErrors,
			MeanAttemptMs:   summary.MeanAttempt.Milliseconds(),
		},
	}

	for _, row := range rows {
		entry := Outcome{
			CaseID:   row.Case.ID,
			Reason:   row.Case.Reason,
			Expected: row.Case.Expected.String(),
		}

		if row.Outcome == nil {
			r.Summary.NotRun++
			r.Outcomes = append(r.Outcomes, entry)
			continue
		}

		entry.Ran = true
		entry.Endpoint = row.Outcome.Endpoint
		entry.Passed = row.Outcome.Passed
		entry.HTTPStatus = row.Outcome.HTTPStatus
		entry.Body = row.Outcome.Body
		entry.ElapsedMs = row.Outcome.ElapsedMs()
		entry.Error = row.Outcome.Error

		if entry.Passed {
			r.Summary.Passed++
		} else {
			r.Summary.Failed++
		}

		r.Outcomes = append(r.Outcomes, entry)
	}

	for _, a := range attempts {
		r.Attempts = append(r.Attempts, Attempt{
			CaseID:     a.CaseID,
			Endpoint:   a.Endpoint,
			Passed:     a.Passed,
			HTTPStatus: a.HTTPStatus,
			ElapsedMs:  a.Duration.Milliseconds(),
			Failure:    string(a.Failure),
			At:         a.Timestamp.UTC(),
		})
	}

	return r
}

// Write encodes r to w.
func Write(w io.Writer, f Format, r *Report) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding json report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", errUnsupportedFormat, f)
	}
}

// WriteFile writes r to path in the format implied by its extension.
func WriteFile(path string, r *Report) error {
	file, err := os.Create(path) //nolint:gosec // G304: operator supplied report path
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	if err := Write(file, FormatFromPath(path), r); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}
