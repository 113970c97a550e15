package table

import (
	"fmt"

	"github.com/ethpandaops/jwtprobe/internal/harness/format"
	"github.com/ethpandaops/jwtprobe/internal/harness/metrics"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// SummaryFormatter formats summary statistics as a table.
type SummaryFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *ColorHelper
}

// NewSummaryFormatter creates a new summary table formatter.
func NewSummaryFormatter(log logrus.FieldLogger, renderer Renderer) *SummaryFormatter {
	return &SummaryFormatter{
		log:      log.WithField("component", "table.summary_formatter"),
		renderer: renderer,
		colors:   NewColorHelper(),
	}
}

// Format converts summary metrics into a formatted table string.
func (f *SummaryFormatter) Format(summary metrics.SummaryMetric) string {
	var passRate float64
	if summary.TotalAttempts > 0 {
		passRate = float64(summary.Passed) / float64(summary.TotalAttempts) * 100.0
	}

	passedValue := fmt.Sprintf("%d (%s)", summary.Passed, f.colors.FormatPercentage(passRate))
	if summary.Passed == summary.TotalAttempts {
		passedValue = f.colors.Success(fmt.Sprintf("%d (%.1f%%)", summary.Passed, passRate))
	}

	failedValue := fmt.Sprintf("%d (%.1f%%)", summary.Failed, 100.0-passRate)
	if summary.Failed > 0 {
		failedValue = f.colors.Failure(failedValue)
	} else {
		failedValue = f.colors.Success(failedValue)
	}

	slowest := "-"
	if summary.SlowestCaseID != "" {
		slowest = fmt.Sprintf("%s (%s)", summary.SlowestCaseID, format.Duration(summary.SlowestAttempt))
	}

	var (
		headers = []string{"Metric", "Value"}
		rows    = [][]string{
			{"Attempts", f.colors.Bold(fmt.Sprintf("%d", summary.TotalAttempts))},
			{"Passed", passedValue},
			{"Failed", failedValue},
			{"Mismatches", f.count(summary.Mismatches)},
			{"Timeouts", f.count(summary.Timeouts)},
			{"Transport Errors", f.count(summary.TransportErrors)},
			{"Canceled", f.count(summary.Canceled)},
			{"Mean Attempt", format.Duration(summary.MeanAttempt)},
			{"Slowest Attempt", slowest},
			{"Total Duration", format.Duration(summary.TotalDuration)},
		}
	)

	return "\n" + f.colors.Header("▸ Summary") + "\n\n" + f.renderer.RenderToString(headers, rows,
		WithColumnAlignment(tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT),
	)
}

func (f *SummaryFormatter) count(n int) string {
	text := fmt.Sprintf("%d", n)
	if n == 0 {
		return f.colors.Muted(text)
	}
	return f.colors.Warning(text)
}
