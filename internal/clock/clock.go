// Package clock abstracts time for the playback loop so that delays, frame
// pacing and progress can be simulated in tests without real waiting.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source used by the player.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Real implements Clock with the system time.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Sim is a simulated clock. Every call to After moves the clock forward by
// the requested duration and fires immediately, so a loop driven by Sim runs
// as fast as the CPU allows while observing consistent virtual time.
type Sim struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

// NewSim returns a simulated clock starting at start.
func NewSim(start time.Time) *Sim {
	return &Sim{now: start}
}

func (s *Sim) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Sim) After(d time.Duration) <-chan time.Time {
	s.mu.Lock()
	if d > 0 {
		s.now = s.now.Add(d)
		s.slept += d
	}
	now := s.now
	s.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Advance moves the clock forward without counting as a wait.
func (s *Sim) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

// Slept returns the total virtual time spent in After.
func (s *Sim) Slept() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slept
}

// Sleep waits for d on clk. It returns ctx.Err() if the context ends first.
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}

// RepeatUntil calls fn once per interval until fn reports done. The first
// call happens one interval after RepeatUntil starts, like a frame callback.
func RepeatUntil(ctx context.Context, clk Clock, interval time.Duration, fn func(now time.Time) bool) error {
	for {
		if err := Sleep(ctx, clk, interval); err != nil {
			return err
		}
		if fn(clk.Now()) {
			return nil
		}
	}
}
