package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryRunsUntilStopped(t *testing.T) {
	s := New(context.Background())
	defer s.Close()

	var n atomic.Int32
	stop := s.Every(5*time.Millisecond, func(ctx context.Context) { n.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if n.Load() < 3 {
		t.Fatalf("ticks = %d, want >= 3", n.Load())
	}

	stop()
	time.Sleep(20 * time.Millisecond)
	after := n.Load()
	time.Sleep(30 * time.Millisecond)
	if n.Load() != after {
		t.Errorf("task kept running after stop: %d -> %d", after, n.Load())
	}
}

func TestEveryNonPositiveIntervalIsNoop(t *testing.T) {
	s := New(context.Background())
	defer s.Close()

	var n atomic.Int32
	stop := s.Every(0, func(ctx context.Context) { n.Add(1) })
	stop()
	time.Sleep(10 * time.Millisecond)
	if n.Load() != 0 {
		t.Errorf("ticks = %d, want 0", n.Load())
	}
}

func TestEveryDoesNotOverlap(t *testing.T) {
	s := New(context.Background())

	var running, maxRunning atomic.Int32
	s.Every(time.Millisecond, func(ctx context.Context) {
		cur := running.Add(1)
		if cur > maxRunning.Load() {
			maxRunning.Store(cur)
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
	})

	time.Sleep(40 * time.Millisecond)
	s.Close()

	if maxRunning.Load() != 1 {
		t.Errorf("max concurrent ticks = %d, want 1", maxRunning.Load())
	}
}

func TestCloseWaitsForBackgroundTasks(t *testing.T) {
	s := New(context.Background())

	var done atomic.Bool
	s.Go(func(ctx context.Context) {
		// Close must not cancel this context
		if err := Sleep(ctx, 20*time.Millisecond); err != nil {
			return
		}
		done.Store(true)
	})

	s.Close()
	if !done.Load() {
		t.Fatal("Close returned before background task completed")
	}
	if s.Go(func(context.Context) {}) {
		t.Error("Go accepted a task after Close")
	}
	s.Close()
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v, want context.Canceled", err)
	}

	start := time.Now()
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Sleep returned early")
	}
}
