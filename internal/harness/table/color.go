package table

import (
	"fmt"

	"github.com/fatih/color"
)

// ColorHelper colours harness output. Colouring follows color.NoColor at
// construction time, so piped output stays plain.
type ColorHelper struct {
	enabled bool
}

// NewColorHelper creates a color helper.
func NewColorHelper() *ColorHelper {
	return &ColorHelper{enabled: !color.NoColor}
}

func (c *ColorHelper) paint(text string, attrs ...color.Attribute) string {
	if !c.enabled {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// Success is green.
func (c *ColorHelper) Success(text string) string { return c.paint(text, color.FgGreen) }

// Failure is red.
func (c *ColorHelper) Failure(text string) string { return c.paint(text, color.FgRed) }

// Warning is yellow.
func (c *ColorHelper) Warning(text string) string { return c.paint(text, color.FgYellow) }

// Info is cyan.
func (c *ColorHelper) Info(text string) string { return c.paint(text, color.FgCyan) }

// Muted is gray.
func (c *ColorHelper) Muted(text string) string { return c.paint(text, color.FgHiBlack) }

// Bold is bold.
func (c *ColorHelper) Bold(text string) string { return c.paint(text, color.Bold) }

// Header is bold cyan, for section titles.
func (c *ColorHelper) Header(text string) string { return c.paint(text, color.FgCyan, color.Bold) }

// FormatStatus returns the pass/fail marker of a completed case.
func (c *ColorHelper) FormatStatus(passed bool) string {
	if passed {
		return c.Success("✓ PASS")
	}
	return c.Failure("✗ FAIL")
}

// FormatPending marks a case that has not run yet.
func (c *ColorHelper) FormatPending() string {
	return c.Muted("· not run")
}

// FormatHTTPStatus colours an HTTP status by class; zero renders as "-".
func (c *ColorHelper) FormatHTTPStatus(status int) string {
	text := fmt.Sprintf("%d", status)

	switch {
	case status == 0:
		return c.Muted("-")
	case status >= 200 && status < 300:
		return c.Success(text)
	case status >= 400 && status < 500:
		return c.Warning(text)
	default:
		return c.Failure(text)
	}
}

// FormatCount renders passed/total: green when all passed, red when none did.
func (c *ColorHelper) FormatCount(passed, total int) string {
	text := fmt.Sprintf("%d/%d", passed, total)

	switch passed {
	case total:
		return c.Success(text)
	case 0:
		return c.Failure(text)
	default:
		return c.Warning(text)
	}
}

// FormatPercentage renders a pass rate: green at 100, yellow from 90.
func (c *ColorHelper) FormatPercentage(value float64) string {
	text := fmt.Sprintf("%.1f%%", value)

	switch {
	case value == 100.0:
		return c.Success(text)
	case value >= 90.0:
		return c.Warning(text)
	default:
		return c.Failure(text)
	}
}
