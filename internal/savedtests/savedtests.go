// Package savedtests manages the named test cases persisted by the backend
// and checks that their tokens still decode to the stored result.
package savedtests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/ethpandaops/jwtprobe/internal/backend"
	"github.com/ethpandaops/jwtprobe/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	errNameRequired  = errors.New("test name is required")
	errTokenRequired = errors.New("token is required")
)

// API is the subset of the backend client used by the manager.
type API interface {
	ListTests(ctx context.Context) ([]backend.SavedTest, error)
	SaveTest(ctx context.Context, req backend.SaveTestRequest) error
	DeleteTest(ctx context.Context, id string) error
	Decode(ctx context.Context, token string) (*backend.DecodeResponse, error)
}

// SaveInput is a test case as produced by the encode command.
type SaveInput struct {
	Name        string
	Description string
	Token       string
	Header      map[string]any
	Payload     map[string]any
}

// CheckResult is the re-decode verdict of one saved test.
type CheckResult struct {
	Test       backend.SavedTest
	Passed     bool
	Mismatches []string
	Error      string
	Duration   time.Duration
}

// Manager lists, saves, deletes and checks saved tests.
type Manager struct {
	api         API
	log         logrus.FieldLogger
	concurrency int
}

// NewManager creates a manager; concurrency <= 0 uses the default.
func NewManager(log logrus.FieldLogger, api API, concurrency int) *Manager {
	if concurrency <= 0 {
		concurrency = config.DefaultCheckConcurrency
	}

	return &Manager{
		api:         api,
		log:         log.WithField("component", "saved_tests"),
		concurrency: concurrency,
	}
}

// List returns every saved test ordered by name, then id.
func (m *Manager) List(ctx context.Context) ([]backend.SavedTest, error) {
	tests, err := m.api.ListTests(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing saved tests: %w", err)
	}

	sort.SliceStable(tests, func(i, j int) bool {
		if tests[i].Name != tests[j].Name {
			return tests[i].Name < tests[j].Name
		}
		return tests[i].ID < tests[j].ID
	})

	return tests, nil
}

// Save persists in as a named test with its header and payload as the expected result.
func (m *Manager) Save(ctx context.Context, in SaveInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return errNameRequired
	}

	token := strings.TrimSpace(in.Token)
	if token == "" {
		return errTokenRequired
	}

	req := backend.SaveTestRequest{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Token:       token,
		Result: backend.TestResult{
			Header:  in.Header,
			Payload: in.Payload,
		},
	}

	if err := m.api.SaveTest(ctx, req); err != nil {
		return fmt.Errorf("saving test %q: %w", name, err)
	}

	m.log.WithField("name", name).Info("test saved")

	return nil
}

// Delete removes a saved test.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.api.DeleteTest(ctx, id); err != nil {
		return fmt.Errorf("deleting test %s: %w", id, err)
	}

	m.log.WithField("id", id).Info("test deleted")

	return nil
}

// Check re-decodes every saved token through the backend and compares the
// answer with the stored result. Per-test failures are reported in the
// results; only listing errors and cancellation abort the check.
func (m *Manager) Check(ctx context.Context) ([]*CheckResult, error) {
	start := time.Now()

	tests, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*CheckResult, len(tests))
	g, gCtx := errgroup.WithContext(ctx)

	sem := make(chan struct{}, m.concurrency)
	for i, test := range tests {
		i, test := i, test
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gCtx.Done():
				return gCtx.Err()
			}

			results[i] = m.checkOne(gCtx, test)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"total":    len(results),
		"passed":   passed,
		"failed":   len(results) - passed,
		"duration": time.Since(start),
	}).Info("saved test check complete")

	return results, nil
}

func (m *Manager) checkOne(ctx context.Context, test backend.SavedTest) *CheckResult {
	start := time.Now()
	result := &CheckResult{Test: test}

	decoded, err := m.api.Decode(ctx, test.Token)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		return result
	}

	if !sameDocument(test.Result.Header, decoded.Header) {
		result.Mismatches = append(result.Mismatches, "header")
	}

	if !sameDocument(test.Result.Payload, decoded.Payload) {
		result.Mismatches = append(result.Mismatches, "payload")
	}

	result.Passed = len(result.Mismatches) == 0

	m.log.WithFields(logrus.Fields{
		"id":     test.ID,
		"passed": result.Passed,
	}).Debug("saved test checked")

	return result
}

// sameDocument compares two JSON objects after normalising number types.
func sameDocument(a, b map[string]any) bool {
	return reflect.DeepEqual(normalise(a), normalise(b))
}

func normalise(doc map[string]any) any {
	if len(doc) == 0 {
		return map[string]any{}
	}

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
