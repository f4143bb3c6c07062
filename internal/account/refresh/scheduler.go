// Package refresh runs the periodic account-data refresh. The loop is
// best effort and cooperative: the purchase workflow pauses it while a
// submission is in flight so both never read the same account snapshot
// concurrently.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Func performs one refresh pass. Errors are the func's own concern;
// the scheduler never retries early.
type Func func(ctx context.Context)

// Scheduler ticks a refresh function at a fixed interval. It satisfies
// the workflow's pause gate.
type Scheduler struct {
	interval time.Duration
	fn       Func

	mu     sync.Mutex
	paused int
}

// New creates a scheduler. Interval must be positive.
func New(interval time.Duration, fn Func) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("refresh interval must be positive")
	}
	if fn == nil {
		return nil, errors.New("refresh func is required")
	}
	return &Scheduler{interval: interval, fn: fn}, nil
}

// Pause suspends ticks. Calls nest: every Pause needs a matching
// Resume before ticks run again.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused++
}

// Resume lifts one Pause.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused > 0 {
		s.paused--
	}
}

// Paused reports whether ticks are currently suppressed.
func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused > 0
}

// Run ticks until the context is canceled. Paused ticks are skipped,
// not queued.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if s.Paused() {
				continue
			}
			s.fn(ctx)
		}
	}
}

// ScheduleOnce fires the refresh once after the given delay, honoring
// the post-purchase settle window. Cancellation skips the refresh.
func (s *Scheduler) ScheduleOnce(ctx context.Context, delay time.Duration) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
			if !s.Paused() {
				s.fn(ctx)
			}
		}
	}()
}
