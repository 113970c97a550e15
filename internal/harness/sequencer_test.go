package harness

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_RunsInOrderWithDelay(t *testing.T) {
	t.Parallel()

	const delay = 15 * time.Millisecond

	var (
		order  []int
		starts []time.Time
		active atomic.Int32
	)

	seq := NewSequencer(delay)
	err := seq.Run(context.Background(), 4, func(_ context.Context, i int) {
		assert.Equal(t, int32(1), active.Add(1), "tasks must not overlap")
		order = append(order, i)
		starts = append(starts, time.Now())
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, order)
	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), delay)
	}
}

func TestSequencer_NegativeDelay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), NewSequencer(-time.Second).Delay)
}

func TestSequencer_NoTasks(t *testing.T) {
	t.Parallel()

	called := false
	err := NewSequencer(time.Hour).Run(context.Background(), 0, func(context.Context, int) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
}

func TestSequencer_StopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran []int

	err := NewSequencer(time.Hour).Run(ctx, 5, func(_ context.Context, i int) {
		ran = append(ran, i)
		cancel()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{0}, ran)
}

func TestSequencer_AlreadyCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewSequencer(0).Run(ctx, 3, func(context.Context, int) { called = true })
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
