package harness

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultStore_UpsertReplacesWholeOutcome(t *testing.T) {
	t.Parallel()

	store := NewResultStore()
	store.Upsert(TestOutcome{CaseID: "b", HTTPStatus: 400, Passed: true, Body: "x"})
	store.Upsert(TestOutcome{CaseID: "a", Error: "timeout 8000ms"})
	store.Upsert(TestOutcome{CaseID: "b", HTTPStatus: 200})

	require.Equal(t, 2, store.Len())

	b, ok := store.Get("b")
	require.True(t, ok)
	assert.Equal(t, TestOutcome{CaseID: "b", HTTPStatus: 200}, b)

	sorted := store.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "a", sorted[0].CaseID)
	assert.Equal(t, "b", sorted[1].CaseID)

	sorted[0].CaseID = "mutated"
	_, ok = store.Get("mutated")
	assert.False(t, ok)

	store.Clear()
	assert.Zero(t, store.Len())
	_, ok = store.Get("a")
	assert.False(t, ok)
}

func TestResultStore_ConcurrentWriters(t *testing.T) {
	t.Parallel()

	store := NewResultStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Upsert(TestOutcome{CaseID: fmt.Sprintf("case-%d", i%5), HTTPStatus: 400 + i})
			_ = store.Sorted()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}
