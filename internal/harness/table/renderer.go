// Package table renders harness outcomes and summaries as terminal tables.
package table

import (
	"bytes"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// Renderer draws rows under a header line.
type Renderer interface {
	RenderToString(headers []string, rows [][]string, opts ...RenderOption) string
	RenderToWriter(w io.Writer, headers []string, rows [][]string, opts ...RenderOption)
}

type renderer struct {
	log logrus.FieldLogger
}

// NewRenderer creates a table renderer.
func NewRenderer(log logrus.FieldLogger) Renderer {
	return &renderer{
		log: log.WithField("component", "table.renderer"),
	}
}

// RenderOption adjusts one table before it is drawn.
type RenderOption func(*tablewriter.Table)

// WithColumnAlignment aligns each column in order (tablewriter.ALIGN_* values).
func WithColumnAlignment(alignments ...int) RenderOption {
	return func(t *tablewriter.Table) {
		t.SetColumnAlignment(alignments)
	}
}

// WithBorder toggles the outer frame.
func WithBorder(show bool) RenderOption {
	return func(t *tablewriter.Table) {
		t.SetBorder(show)
	}
}

// WithRowSeparator draws a rule between rows.
func WithRowSeparator(show bool) RenderOption {
	return func(t *tablewriter.Table) {
		t.SetRowLine(show)
	}
}

// baseStyle is applied before caller options.
func baseStyle(t *tablewriter.Table) {
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("│")
	t.SetRowSeparator("─")
	t.SetHeaderLine(true)
	t.SetBorder(true)
	t.SetTablePadding(" ")
}

func (r *renderer) RenderToString(headers []string, rows [][]string, opts ...RenderOption) string {
	var buf bytes.Buffer
	r.RenderToWriter(&buf, headers, rows, opts...)
	return buf.String()
}

func (r *renderer) RenderToWriter(w io.Writer, headers []string, rows [][]string, opts ...RenderOption) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(headers)

	baseStyle(t)
	for _, opt := range opts {
		opt(t)
	}

	t.AppendBulk(rows)
	t.Render()

	r.log.WithFields(logrus.Fields{
		"columns": len(headers),
		"rows":    len(rows),
	}).Debug("table rendered")
}

var _ Renderer = (*renderer)(nil)
