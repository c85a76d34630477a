// Package schedule runs the timer-driven work of a session: the periodic sync
// check and the simulated network latency around pushes and fetches.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler owns periodic tasks (cancelled on Close) and one-shot background
// tasks (awaited on Close, never cancelled).
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	periodic sync.WaitGroup
	tasks    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New returns a Scheduler whose periodic tasks stop when parent is cancelled
// or Close is called.
func New(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// Every calls fn every interval until the returned stop function is called,
// the scheduler is closed, or its parent context ends. fn runs on a single
// goroutine, so invocations never overlap.
func (s *Scheduler) Every(interval time.Duration, fn func(ctx context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(s.ctx)

	s.mu.Lock()
	if s.closed || interval <= 0 {
		s.mu.Unlock()
		cancel()
		return func() {}
	}
	s.periodic.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.periodic.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("periodic task panic", "panic", r)
			}
		}()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()

	return cancel
}

// Go runs fn in the background. Close waits for it to finish. fn receives a
// context that is not cancelled by Close, since in-flight writes are expected
// to complete.
func (s *Scheduler) Go(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.tasks.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background task panic", "panic", r)
			}
		}()
		fn(context.WithoutCancel(s.ctx))
	}()
	return true
}

// Wait blocks until every task started with Go has returned
func (s *Scheduler) Wait() {
	s.tasks.Wait()
}

// Close cancels periodic tasks, waits for them to exit, then waits for
// background tasks. Close is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.periodic.Wait()
	s.tasks.Wait()
}

// Sleep waits for d or until ctx is done. A zero or negative d returns at once.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
