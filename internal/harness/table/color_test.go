package table

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestColorHelper_FormatStatus(t *testing.T) {
	// Disable colors for consistent testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	helper := NewColorHelper()

	assert.Equal(t, "✓ PASS", helper.FormatStatus(true))
	assert.Equal(t, "✗ FAIL", helper.FormatStatus(false))
	assert.Equal(t, "· not run", helper.FormatPending())
}

func TestColorHelper_FormatHTTPStatus(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	helper := NewColorHelper()

	tests := []struct {
		status   int
		expected string
	}{
		{status: 0, expected: "-"},
		{status: 200, expected: "200"},
		{status: 400, expected: "400"},
		{status: 502, expected: "502"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, helper.FormatHTTPStatus(tt.status))
		})
	}
}

func TestColorHelper_FormatCountAndPercentage(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	helper := NewColorHelper()

	assert.Equal(t, "9/9", helper.FormatCount(9, 9))
	assert.Equal(t, "3/9", helper.FormatCount(3, 9))
	assert.Equal(t, "100.0%", helper.FormatPercentage(100))
	assert.Equal(t, "88.9%", helper.FormatPercentage(88.88))
}

func TestColorHelper_ColorsDisabledWhenNoColor(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	helper := NewColorHelper()
	assert.False(t, helper.enabled)

	assert.Equal(t, "test", helper.Success("test"))
	assert.Equal(t, "test", helper.Failure("test"))
	assert.Equal(t, "test", helper.Warning("test"))
}
