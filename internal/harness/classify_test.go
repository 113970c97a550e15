package harness

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected Expectation
		status   int
		body     any
		want     bool
	}{
		{name: "client error 400", expected: ClientErrorOrException, status: http.StatusBadRequest, want: true},
		{name: "client error 499", expected: ClientErrorOrException, status: 499, want: true},
		{name: "client error on 200", expected: ClientErrorOrException, status: http.StatusOK, want: false},
		{name: "client error on 500", expected: ClientErrorOrException, status: http.StatusInternalServerError, want: false},
		{name: "client error without status", expected: ClientErrorOrException, status: 0, want: false},
		{name: "malformed 422", expected: MalformedFormat, status: http.StatusUnprocessableEntity, want: true},
		{name: "malformed on 200", expected: MalformedFormat, status: http.StatusOK, body: map[string]any{}, want: false},
		{name: "malformed on 503", expected: MalformedFormat, status: http.StatusServiceUnavailable, want: false},
		{name: "signature false", expected: SignatureRejected, status: http.StatusOK, body: map[string]any{"valid_signature": false}, want: true},
		{name: "signature true", expected: SignatureRejected, status: http.StatusOK, body: map[string]any{"valid_signature": true}, want: false},
		{name: "signature absent", expected: SignatureRejected, status: http.StatusOK, body: map[string]any{"other": 1}, want: false},
		{name: "signature as string", expected: SignatureRejected, status: http.StatusOK, body: map[string]any{"valid_signature": "false"}, want: false},
		{name: "signature raw text", expected: SignatureRejected, status: http.StatusOK, body: "valid_signature: false", want: false},
		{name: "signature nil body", expected: SignatureRejected, status: http.StatusOK, want: false},
		{name: "signature 401", expected: SignatureRejected, status: http.StatusUnauthorized, want: true},
		{name: "signature 500", expected: SignatureRejected, status: http.StatusInternalServerError, body: map[string]any{"valid_signature": false}, want: false},
		{name: "signature 201", expected: SignatureRejected, status: http.StatusCreated, body: map[string]any{"valid_signature": false}, want: false},
		{name: "unknown expectation", expected: Expectation(42), status: http.StatusBadRequest, want: false},
		{name: "zero expectation", expected: Expectation(0), status: http.StatusBadRequest, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.expected, tt.status, tt.body))
		})
	}
}

func TestClassify_StatusRanges(t *testing.T) {
	t.Parallel()

	for status := 100; status < 600; status++ {
		want := status >= 400 && status < 500
		for _, e := range []Expectation{ClientErrorOrException, MalformedFormat} {
			assert.Equal(t, want, Classify(e, status, nil), fmt.Sprintf("%s/%d", e, status))
		}
	}
}
