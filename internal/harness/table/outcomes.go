package table

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/ethpandaops/jwtprobe/internal/harness/format"
	"github.com/sirupsen/logrus"
)

const detailWidth = 50

// OutcomesFormatter formats harness rows as a table followed by failure details.
type OutcomesFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *ColorHelper
}

// NewOutcomesFormatter creates a new outcomes table formatter.
func NewOutcomesFormatter(log logrus.FieldLogger, renderer Renderer) *OutcomesFormatter {
	return &OutcomesFormatter{
		log:      log.WithField("component", "table.outcomes_formatter"),
		renderer: renderer,
		colors:   NewColorHelper(),
	}
}

// Format renders one line per row. Rows without an outcome are shown as not run.
func (f *OutcomesFormatter) Format(rows []harness.Row) string {
	if len(rows) == 0 {
		return "No cases defined"
	}

	var (
		headers = []string{"Case", "Expected", "Endpoint", "Status", "Result", "Time", "Details"}
		lines   = make([][]string, 0, len(rows))
		failed  = make([]harness.Row, 0)
	)

	for _, row := range rows {
		if row.Outcome == nil {
			lines = append(lines, []string{
				row.Case.ID,
				row.Case.Expected.String(),
				"-",
				f.colors.Muted("-"),
				f.colors.FormatPending(),
				"-",
				f.colors.Muted(format.Truncate(row.Case.Reason, detailWidth)),
			})
			continue
		}

		o := row.Outcome
		details := format.Compact(o.Body)

		if o.Error != "" {
			details = o.Error
		}

		if !o.Passed {
			failed = append(failed, row)
			details = f.colors.Failure(format.Truncate(details, detailWidth))
		} else {
			details = f.colors.Muted(format.Truncate(details, detailWidth))
		}

		lines = append(lines, []string{
			row.Case.ID,
			row.Case.Expected.String(),
			o.Endpoint,
			f.colors.FormatHTTPStatus(o.HTTPStatus),
			f.colors.FormatStatus(o.Passed),
			format.Duration(o.Elapsed),
			details,
		})
	}

	output := "\n" + f.colors.Header("▸ Malformed Token Results") + "\n\n" + f.renderer.RenderToString(headers, lines)

	if len(failed) > 0 {
		output += f.formatFailureDetails(failed)
	}

	return output
}

// formatFailureDetails lists every failed case with its token and full body.
func (f *OutcomesFormatter) formatFailureDetails(rows []harness.Row) string {
	var builder strings.Builder

	builder.WriteString("\n\n" + f.colors.Header("▸ Failed Case Details") + "\n\n")

	for i, row := range rows {
		if i > 0 {
			builder.WriteString("\n")
		}

		o := row.Outcome

		builder.WriteString(fmt.Sprintf("%s (%s, %s)\n", f.colors.Bold(row.Case.ID), o.Endpoint, format.Duration(o.Elapsed)))
		builder.WriteString(fmt.Sprintf("  %s: %s\n", f.colors.Info("Reason"), row.Case.Reason))
		builder.WriteString(fmt.Sprintf("  %s: %s\n", f.colors.Info("Expected"), row.Case.Expected))
		builder.WriteString(fmt.Sprintf("  %s: %q\n", f.colors.Info("Token"), row.Case.Token))

		if o.Error != "" {
			builder.WriteString(fmt.Sprintf("  %s: %s\n", f.colors.Failure("Error"), o.Error))
			continue
		}

		builder.WriteString(fmt.Sprintf("  %s: %d\n", f.colors.Warning("Status"), o.HTTPStatus))

		if body := format.Body(o.Body); body != "" {
			builder.WriteString(fmt.Sprintf("  %s:\n", f.colors.Warning("Body")))
			for _, line := range strings.Split(body, "\n") {
				builder.WriteString("    " + line + "\n")
			}
		}
	}

	return builder.String()
}
