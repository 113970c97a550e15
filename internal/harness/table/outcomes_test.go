package table

import (
	"strings"
	"testing"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/ethpandaops/jwtprobe/internal/harness/metrics"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestOutcomesFormatter_Format(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	log := logrus.New()
	formatter := NewOutcomesFormatter(log, NewRenderer(log))

	cases := harness.Catalogue()
	rows := []harness.Row{
		{
			Case: cases[0],
			Outcome: &harness.TestOutcome{
				CaseID: cases[0].ID, Endpoint: "decode", HTTPStatus: 400,
				Body: map[string]any{"error": "Invalid token"}, Passed: true, Elapsed: 12 * time.Millisecond,
			},
		},
		{
			Case: cases[5],
			Outcome: &harness.TestOutcome{
				CaseID: cases[5].ID, Endpoint: "verify", HTTPStatus: 200,
				Body: map[string]any{"valid_signature": true}, Passed: false, Elapsed: 30 * time.Millisecond,
			},
		},
		{
			Case: cases[7],
			Outcome: &harness.TestOutcome{
				CaseID: cases[7].ID, Endpoint: "decode", Error: "timeout 8000ms", Elapsed: 8 * time.Second,
			},
		},
		{Case: cases[8]},
	}

	out := formatter.Format(rows)

	assert.Contains(t, out, "Malformed Token Results")
	assert.Contains(t, out, "missing_signature")
	assert.Contains(t, out, "✓ PASS")
	assert.Contains(t, out, "✗ FAIL")
	assert.Contains(t, out, "· not run")
	assert.Contains(t, out, `{"error":"Invalid token"}`)
	assert.Contains(t, out, "8.0s")

	details := out[strings.Index(out, "Failed Case Details"):]
	assert.Contains(t, details, "garbage_signature (verify, 30ms)")
	assert.Contains(t, details, `"valid_signature": true`)
	assert.Contains(t, details, "Error: timeout 8000ms")
	assert.NotContains(t, details, "only_dots")
	assert.NotContains(t, details, "missing_signature")

	assert.Equal(t, "No cases defined", formatter.Format(nil))
}

func TestSummaryFormatter_Format(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	log := logrus.New()
	formatter := NewSummaryFormatter(log, NewRenderer(log))

	out := formatter.Format(metrics.SummaryMetric{
		TotalAttempts:  9,
		Passed:         8,
		Failed:         1,
		Timeouts:       1,
		MeanAttempt:    20 * time.Millisecond,
		SlowestAttempt: 8 * time.Second,
		SlowestCaseID:  "empty",
	})

	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "8 (88.9%)")
	assert.Contains(t, out, "1 (11.1%)")
	assert.Contains(t, out, "empty (8.0s)")
	assert.Contains(t, out, "20ms")
}
