package harness

import (
	"context"
	"time"
)

// Sequencer runs tasks one at a time with a fixed pause between the
// completion of one task and the start of the next.
type Sequencer struct {
	Delay time.Duration
}

// NewSequencer creates a sequencer; a negative delay is treated as zero.
func NewSequencer(delay time.Duration) *Sequencer {
	if delay < 0 {
		delay = 0
	}

	return &Sequencer{Delay: delay}
}

// Run calls task for i = 0..n-1 in order. It stops issuing tasks once ctx
// is done and returns ctx.Err(); a task already running receives the same
// ctx and is expected to honour it.
func (s *Sequencer) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) error {
	for i := 0; i < n; i++ {
		if i > 0 && s.Delay > 0 {
			timer := time.NewTimer(s.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		task(ctx, i)
	}

	return ctx.Err()
}
