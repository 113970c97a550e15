// Package output prints harness progress, results and summaries for humans.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/ethpandaops/jwtprobe/internal/harness/format"
	"github.com/ethpandaops/jwtprobe/internal/harness/metrics"
	"github.com/ethpandaops/jwtprobe/internal/harness/table"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Formatter provides clean, human-friendly output
type Formatter interface {
	PrintPhase(phase string)
	PrintProgress(message string, duration time.Duration)
	PrintSuccess(message string)
	PrintWarning(message string)
	PrintError(message string, err error)
	PrintOutcome(c harness.MalformedTokenCase, outcome harness.TestOutcome)
	PrintResults(rows []harness.Row)
	PrintSummary()
}

type formatter struct {
	writer io.Writer

	metrics          metrics.Collector
	outcomeFormatter *table.OutcomesFormatter
	summaryFormatter *table.SummaryFormatter
	colors           *table.ColorHelper

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	blue   *color.Color
	gray   *color.Color
}

// NewFormatter creates a new output formatter writing to writer.
func NewFormatter(log logrus.FieldLogger, writer io.Writer, metricsCollector metrics.Collector) Formatter {
	renderer := table.NewRenderer(log)

	return &formatter{
		writer:           writer,
		metrics:          metricsCollector,
		outcomeFormatter: table.NewOutcomesFormatter(log, renderer),
		summaryFormatter: table.NewSummaryFormatter(log, renderer),
		colors:           table.NewColorHelper(),
		green:            color.New(color.FgGreen),
		red:              color.New(color.FgRed),
		yellow:           color.New(color.FgYellow),
		blue:             color.New(color.FgBlue),
		gray:             color.New(color.FgHiBlack),
	}
}

// PrintPhase prints phase separator
func (f *formatter) PrintPhase(phase string) {
	_, _ = f.blue.Fprintf(f.writer, "\n▸ %s\n", phase)
}

// PrintProgress prints a progress line with optional timing
func (f *formatter) PrintProgress(message string, duration time.Duration) {
	if duration > 0 {
		_, _ = f.gray.Fprintf(f.writer, "%s (%s)\n", message, format.Duration(duration))
	} else {
		_, _ = fmt.Fprintf(f.writer, "%s\n", message)
	}
}

// PrintSuccess prints a green message
func (f *formatter) PrintSuccess(message string) {
	_, _ = f.green.Fprintf(f.writer, "%s\n", message)
}

// PrintWarning prints a yellow message
func (f *formatter) PrintWarning(message string) {
	_, _ = f.yellow.Fprintf(f.writer, "%s\n", message)
}

// PrintError prints a red message with error details
func (f *formatter) PrintError(message string, err error) {
	_, _ = f.red.Fprintf(f.writer, "%s", message)
	if err != nil {
		_, _ = f.red.Fprintf(f.writer, ": %v", err)
	}
	_, _ = fmt.Fprintf(f.writer, "\n")
}

// PrintOutcome prints a single line for a finished case
func (f *formatter) PrintOutcome(c harness.MalformedTokenCase, outcome harness.TestOutcome) {
	detail := fmt.Sprintf("HTTP %d", outcome.HTTPStatus)
	if outcome.Error != "" {
		detail = outcome.Error
	}

	_, _ = fmt.Fprintf(f.writer, "%s %-22s %-7s %s %s\n",
		f.colors.FormatStatus(outcome.Passed),
		c.ID,
		outcome.Endpoint,
		detail,
		f.colors.Muted("("+format.Duration(outcome.Elapsed)+")"),
	)
}

// PrintResults prints the outcomes table with failure details
func (f *formatter) PrintResults(rows []harness.Row) {
	_, _ = fmt.Fprintln(f.writer, f.outcomeFormatter.Format(rows))
}

// PrintSummary prints a summary table with aggregate statistics
func (f *formatter) PrintSummary() {
	if f.metrics == nil {
		return
	}

	_, _ = fmt.Fprintln(f.writer, f.summaryFormatter.Format(f.metrics.GetSummary()))
}
