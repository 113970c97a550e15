package tokenlab

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const headerSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["alg"],
  "properties": {
    "alg": {"type": "string", "enum": ["HS256", "HS384", "HS512"]},
    "typ": {"type": "string"},
    "kid": {"type": "string"}
  }
}`

const payloadSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "exp": {"type": "number"},
    "iat": {"type": "number"},
    "nbf": {"type": "number"},
    "sub": {"type": "string"},
    "iss": {"type": "string"},
    "jti": {"type": "string"},
    "aud": {"type": ["string", "array"], "items": {"type": "string"}}
  }
}`

// Violation is one schema failure located in the document.
type Violation struct {
	Path    string
	Message string
}

// SchemaError lists every violation of a document.
type SchemaError struct {
	Document   string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Path, v.Message))
	}

	return fmt.Sprintf("invalid %s: %s", e.Document, strings.Join(parts, "; "))
}

type schemas struct {
	header  *jsonschema.Schema
	payload *jsonschema.Schema
}

var (
	compileOnce sync.Once
	compiled    schemas
	compileErr  error
)

func loadSchemas() (schemas, error) {
	compileOnce.Do(func() {
		compiled.header, compileErr = compile("header.json", headerSchema)
		if compileErr != nil {
			return
		}
		compiled.payload, compileErr = compile("payload.json", payloadSchema)
	})

	return compiled, compileErr
}

func compile(name, source string) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(source), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}

	sch, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	return sch, nil
}

// ValidateHeader checks that header names an allowed HMAC algorithm.
func ValidateHeader(header map[string]any) error {
	s, err := loadSchemas()
	if err != nil {
		return err
	}

	return validate("header", s.header, header)
}

// ValidatePayload checks the types of the registered claims.
func ValidatePayload(payload map[string]any) error {
	s, err := loadSchemas()
	if err != nil {
		return err
	}

	return validate("payload", s.payload, payload)
}

func validate(document string, sch *jsonschema.Schema, doc map[string]any) error {
	err := sch.Validate(toInstance(doc))
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validating %s: %w", document, err)
	}

	schemaErr := &SchemaError{Document: document}
	for _, cause := range flattenValidationErrors(ve) {
		schemaErr.Violations = append(schemaErr.Violations, Violation{
			Path:    "/" + strings.Join(cause.InstanceLocation, "/"),
			Message: leafMessage(cause),
		})
	}

	return schemaErr
}

// toInstance converts a document to the plain JSON value tree the validator
// expects (maps built in Go may carry int64 or other typed values).
func toInstance(doc map[string]any) any {
	data, err := json.Marshal(doc)
	if err != nil {
		return doc
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return doc
	}

	return out
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}

	var flat []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}

	return flat
}

// leafMessage keeps the last line of the validator's text without its location prefix.
func leafMessage(ve *jsonschema.ValidationError) string {
	lines := strings.Split(strings.TrimSpace(ve.Error()), "\n")
	msg := strings.TrimSpace(lines[len(lines)-1])
	msg = strings.TrimPrefix(msg, "- ")

	if strings.HasPrefix(msg, "at '") {
		if i := strings.Index(msg, "': "); i >= 0 {
			msg = msg[i+3:]
		}
	}

	return msg
}
