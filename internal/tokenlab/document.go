// Package tokenlab holds the local helpers behind the encode, decode,
// verify and analyze commands: JSONC header/payload documents, schema
// checks, expiry reporting, the local HMAC cross-check and parse tree
// rendering. Cryptography that matters is always done by the backend.
package tokenlab

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"
)

var errNotObject = errors.New("document must be a JSON object")

// DefaultHeader is the header proposed by the encode command.
func DefaultHeader() map[string]any {
	return map[string]any{
		"alg": "HS256",
		"typ": "JWT",
	}
}

// DefaultPayload is the payload proposed by the encode command.
func DefaultPayload(now time.Time) map[string]any {
	return map[string]any{
		"sub":  "123",
		"name": "nicolas",
		"iat":  now.Unix(),
	}
}

// ParseDocument parses a JSON or JSONC (comments, trailing commas) object.
func ParseDocument(data []byte) (map[string]any, error) {
	stripped := jsonc.ToJSON(data)

	var doc any
	if err := json.Unmarshal(stripped, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errNotObject
	}

	return obj, nil
}

// ReadDocument reads and parses a document file.
func ReadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator supplied document
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

// Pretty renders v as indented JSON.
func Pretty(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(data)
}
