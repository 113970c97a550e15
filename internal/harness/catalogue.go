// Package harness drives deliberately malformed tokens against the backend
// decode and verify operations and classifies every answer against the
// failure the backend is expected to report.
package harness

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errUnknownExpectation = errors.New("unknown expectation")

// Expectation is what a correct backend must do with a malformed token.
type Expectation int

const (
	// ClientErrorOrException expects a 4xx answer or a transport failure.
	ClientErrorOrException Expectation = iota + 1
	// SignatureRejected expects valid_signature=false with 200, or a 4xx.
	SignatureRejected
	// MalformedFormat expects a 4xx structural rejection.
	MalformedFormat
)

// String returns the canonical tag of the expectation.
func (e Expectation) String() string {
	switch e {
	case ClientErrorOrException:
		return "client_error_or_exception"
	case SignatureRejected:
		return "signature_rejected"
	case MalformedFormat:
		return "malformed_format"
	default:
		return fmt.Sprintf("expectation(%d)", int(e))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Expectation) MarshalText() ([]byte, error) {
	if _, err := ParseExpectation(e.String()); err != nil {
		return nil, err
	}

	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Expectation) UnmarshalText(text []byte) error {
	parsed, err := ParseExpectation(string(text))
	if err != nil {
		return err
	}

	*e = parsed

	return nil
}

// ParseExpectation accepts canonical tags and the short legacy tags.
func ParseExpectation(s string) (Expectation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client_error_or_exception", "4xx_or_error":
		return ClientErrorOrException, nil
	case "signature_rejected", "verify_false":
		return SignatureRejected, nil
	case "malformed_format", "bad_format":
		return MalformedFormat, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownExpectation, s)
	}
}

// MalformedTokenCase describes one adversarial input.
type MalformedTokenCase struct {
	ID       string      `json:"id" yaml:"id"`
	Token    string      `json:"token" yaml:"token"`
	Reason   string      `json:"reason" yaml:"reason"`
	Expected Expectation `json:"expected" yaml:"expected"`
}

// Base64URLEncode encodes the UTF-8 bytes of s with the URL-safe alphabet and no padding.
func Base64URLEncode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// encodeSegment marshals v as compact JSON and base64url-encodes it.
func encodeSegment(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Only called with the fixed segment structs below.
		panic(fmt.Sprintf("encoding segment: %v", err))
	}

	return Base64URLEncode(string(data))
}

// Header and payload claims used to build the base segments. Struct field
// order keeps the JSON text stable.
type segmentHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

type segmentPayload struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
	Iat  int64  `json:"iat"`
}

// Catalogue returns the fixed set of malformed token cases, in run order.
// Every call returns a fresh slice with the same content.
func Catalogue() []MalformedTokenCase {
	var (
		header  = encodeSegment(segmentHeader{Alg: "HS256", Typ: "JWT"})
		payload = encodeSegment(segmentPayload{Sub: "123", Name: "John", Iat: 1761545381})
		noneAlg = encodeSegment(segmentHeader{Alg: "none", Typ: "JWT"})
	)

	return []MalformedTokenCase{
		{
			ID:       "missing_signature",
			Token:    header + "." + payload,
			Reason:   "signature segment missing (2 segments)",
			Expected: MalformedFormat,
		},
		{
			ID:       "no_dots",
			Token:    header + payload + "INVALID",
			Reason:   "no '.' separators",
			Expected: MalformedFormat,
		},
		{
			ID:       "invalid_base64_chars",
			Token:    header + "." + payload + "==.sig",
			Reason:   "padding or invalid character in base64url",
			Expected: ClientErrorOrException,
		},
		{
			ID:       "payload_not_json",
			Token:    header + "." + Base64URLEncode("not json") + ".badsig",
			Reason:   "payload is not JSON",
			Expected: ClientErrorOrException,
		},
		{
			ID:       "alg_none_with_sig",
			Token:    noneAlg + "." + payload + ".signature",
			Reason:   "alg none with a signature present",
			Expected: ClientErrorOrException,
		},
		{
			ID:       "garbage_signature",
			Token:    header + "." + payload + "." + strings.Repeat("A", 40),
			Reason:   "random invalid signature",
			Expected: SignatureRejected,
		},
		{
			ID:       "too_many_segments",
			Token:    header + "." + payload + ".sig.extra",
			Reason:   "more than 3 segments",
			Expected: MalformedFormat,
		},
		{
			ID:       "empty",
			Token:    "",
			Reason:   "empty token",
			Expected: MalformedFormat,
		},
		{
			ID:       "only_dots",
			Token:    "...",
			Reason:   "separators only",
			Expected: MalformedFormat,
		},
	}
}
