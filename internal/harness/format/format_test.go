package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 500 * time.Microsecond, want: "500µs"},
		{in: 120 * time.Millisecond, want: "120ms"},
		{in: 1500 * time.Millisecond, want: "1.5s"},
		{in: 90 * time.Second, want: "1.5m"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Duration(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", Truncate("short", 20))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "ééé...", Truncate("éééééééé", 6))
	assert.Equal(t, "unbounded", Truncate("unbounded", 0))
}

func TestBody(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Body(nil))
	assert.Equal(t, "Bad Request", Body("Bad Request"))
	assert.Equal(t, "{\n  \"error\": \"x\"\n}", Body(map[string]any{"error": "x"}))

	assert.Empty(t, Compact(nil))
	assert.Equal(t, `{"valid_signature":false}`, Compact(map[string]any{"valid_signature": false}))
	assert.Equal(t, "a b c", Compact("a\n  b\tc"))
}
