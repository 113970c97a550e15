package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		expression string
		want       []string
	}{
		{
			name:       "empty matches all",
			expression: "  ",
			want: []string{
				"missing_signature", "no_dots", "invalid_base64_chars", "payload_not_json",
				"alg_none_with_sig", "garbage_signature", "too_many_segments", "empty", "only_dots",
			},
		},
		{
			name:       "by expectation",
			expression: `expected == "signature_rejected"`,
			want:       []string{"garbage_signature"},
		},
		{
			name:       "by segment count",
			expression: `expected == "malformed_format" && segments > 3`,
			want:       []string{"too_many_segments", "only_dots"},
		},
		{
			name:       "by id prefix",
			expression: `id startsWith "p" || length == 0`,
			want:       []string{"payload_not_json", "empty"},
		},
		{
			name:       "by reason text",
			expression: `reason contains "JSON"`,
			want:       []string{"payload_not_json"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter, err := CompileFilter(tt.expression)
			require.NoError(t, err)

			ids, err := filter.Select(Catalogue())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCompileFilter_Errors(t *testing.T) {
	t.Parallel()

	_, err := CompileFilter(`segments +`)
	require.Error(t, err)

	_, err = CompileFilter(`length + 1`)
	require.Error(t, err, "non-boolean expressions are rejected")

	_, err = CompileFilter(`unknown_field == 1`)
	require.Error(t, err)
}
