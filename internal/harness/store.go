package harness

import (
	"sort"
	"sync"
)

// ResultStore holds at most one live outcome per case id. Outcomes are
// replaced as whole values; concurrent writes for the same id resolve as
// last write wins.
type ResultStore struct {
	mu       sync.RWMutex
	outcomes map[string]TestOutcome
}

// NewResultStore creates an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		outcomes: make(map[string]TestOutcome),
	}
}

// Upsert stores outcome, replacing any previous outcome for the same case.
func (s *ResultStore) Upsert(outcome TestOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[outcome.CaseID] = outcome
}

// Get returns the live outcome for a case.
func (s *ResultStore) Get(caseID string) (TestOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	outcome, ok := s.outcomes[caseID]
	return outcome, ok
}

// Clear drops every outcome.
func (s *ResultStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = make(map[string]TestOutcome)
}

// Len returns the number of live outcomes.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outcomes)
}

// Sorted returns a copy of every outcome ordered by case id.
func (s *ResultStore) Sorted() []TestOutcome {
	s.mu.RLock()
	result := make([]TestOutcome, 0, len(s.outcomes))
	for _, outcome := range s.outcomes {
		result = append(result, outcome)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CaseID < result[j].CaseID
	})

	return result
}
