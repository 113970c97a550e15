package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/ethpandaops/jwtprobe/internal/harness/metrics"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Print(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	log := logrus.New()
	collector := metrics.NewCollector(log)
	collector.RecordOutcome(&metrics.OutcomeMetric{CaseID: "empty", Passed: true, Duration: 5 * time.Millisecond})

	var buf bytes.Buffer
	f := NewFormatter(log, &buf, collector)

	c := harness.Catalogue()[7]
	f.PrintPhase("Running cases")
	f.PrintOutcome(c, harness.TestOutcome{CaseID: c.ID, Endpoint: "decode", HTTPStatus: 400, Passed: true, Elapsed: 5 * time.Millisecond})
	f.PrintOutcome(c, harness.TestOutcome{CaseID: c.ID, Endpoint: "decode", Error: "timeout 8000ms"})
	f.PrintError("request failed", errors.New("boom"))
	f.PrintResults([]harness.Row{{Case: c}})
	f.PrintSummary()

	out := buf.String()
	assert.Contains(t, out, "▸ Running cases")
	assert.Contains(t, out, "✓ PASS empty")
	assert.Contains(t, out, "HTTP 400")
	assert.Contains(t, out, "✗ FAIL empty")
	assert.Contains(t, out, "timeout 8000ms")
	assert.Contains(t, out, "request failed: boom")
	assert.Contains(t, out, "· not run")
	assert.Contains(t, out, "Summary")
}
