// Package casedef loads extra malformed token cases from YAML files.
// Extra cases run after the built-in catalogue and can never replace it.
package casedef

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethpandaops/jwtprobe/internal/harness"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	errCaseMissingID       = errors.New("case id is required")
	errCaseMissingReason   = errors.New("case reason is required")
	errCaseMissingExpected = errors.New("case expected is required")
	errCaseDuplicateID     = errors.New("duplicate case id")
	errCaseBuiltinID       = errors.New("case id collides with a built-in case")
)

// File is the on-disk layout:
//
//	cases:
//	  - id: short_header
//	    token: "eyJhbGciOi.e30.sig"
//	    reason: truncated header segment
//	    expected: client_error_or_exception
type File struct {
	Cases []*CaseDefinition `yaml:"cases"`
}

// CaseDefinition is one case as written in YAML. Expected accepts the
// canonical and legacy expectation tags.
type CaseDefinition struct {
	ID       string `yaml:"id"`
	Token    string `yaml:"token"`
	Reason   string `yaml:"reason"`
	Expected string `yaml:"expected"`
}

// Loader loads case definition files.
type Loader interface {
	Load(path string) ([]harness.MalformedTokenCase, error)
	Parse(data []byte) ([]harness.MalformedTokenCase, error)
}

type loader struct {
	log logrus.FieldLogger
}

// NewLoader creates a new case definition loader.
func NewLoader(log logrus.FieldLogger) Loader {
	return &loader{
		log: log.WithField("component", "casedef_loader"),
	}
}

// Load reads and validates the cases in path.
func (l *loader) Load(path string) ([]harness.MalformedTokenCase, error) {
	l.log.WithField("path", path).Debug("loading extra cases")

	data, err := os.ReadFile(path) //nolint:gosec // G304: operator supplied case file
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	cases, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading cases from %s: %w", path, err)
	}

	return cases, nil
}

// Parse validates YAML content and converts it to harness cases.
func (l *loader) Parse(data []byte) ([]harness.MalformedTokenCase, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	if len(file.Cases) == 0 {
		l.log.Warn("case file defines no cases")
		return nil, nil
	}

	builtin := make(map[string]bool)
	for _, c := range harness.Catalogue() {
		builtin[c.ID] = true
	}

	seen := make(map[string]bool, len(file.Cases))
	cases := make([]harness.MalformedTokenCase, 0, len(file.Cases))

	for i, def := range file.Cases {
		c, err := validateDefinition(i, def)
		if err != nil {
			return nil, err
		}

		if builtin[c.ID] {
			return nil, fmt.Errorf("%w: %s", errCaseBuiltinID, c.ID)
		}

		if seen[c.ID] {
			return nil, fmt.Errorf("%w: %s", errCaseDuplicateID, c.ID)
		}
		seen[c.ID] = true

		cases = append(cases, c)
	}

	l.log.WithField("cases", len(cases)).Debug("extra cases loaded")

	return cases, nil
}

func validateDefinition(index int, def *CaseDefinition) (harness.MalformedTokenCase, error) {
	if def == nil || def.ID == "" {
		return harness.MalformedTokenCase{}, fmt.Errorf("%w at index %d", errCaseMissingID, index)
	}

	if def.Reason == "" {
		return harness.MalformedTokenCase{}, fmt.Errorf("%w: %s", errCaseMissingReason, def.ID)
	}

	if def.Expected == "" {
		return harness.MalformedTokenCase{}, fmt.Errorf("%w: %s", errCaseMissingExpected, def.ID)
	}

	expected, err := harness.ParseExpectation(def.Expected)
	if err != nil {
		return harness.MalformedTokenCase{}, fmt.Errorf("case %s: %w", def.ID, err)
	}

	return harness.MalformedTokenCase{
		ID:       def.ID,
		Token:    def.Token,
		Reason:   def.Reason,
		Expected: expected,
	}, nil
}

// WithBuiltins returns the built-in catalogue followed by extra.
func WithBuiltins(extra []harness.MalformedTokenCase) []harness.MalformedTokenCase {
	cases := harness.Catalogue()
	return append(cases, extra...)
}
