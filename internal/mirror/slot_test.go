package mirror

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcus/quotes/internal/kv"
	"github.com/marcus/quotes/internal/models"
)

func TestSlotFetchMissing(t *testing.T) {
	m := NewSlot(kv.NewMemory(), 0)

	if _, err := m.FetchBytes(context.Background()); !errors.Is(err, ErrMissing) {
		t.Fatalf("FetchBytes err = %v, want ErrMissing", err)
	}
	if _, err := m.Fetch(context.Background()); !errors.Is(err, ErrMissing) {
		t.Fatalf("Fetch err = %v, want ErrMissing", err)
	}
}

func TestSlotPushFetch(t *testing.T) {
	store := kv.NewMemory()
	m := NewSlot(store, 0)
	ctx := context.Background()

	c := models.Collection{{Text: "A", Category: "X"}, {Text: "B", Category: "Y"}}
	if err := m.Push(ctx, c); err != nil {
		t.Fatalf("Push: %v", err)
	}

	raw, ok, _ := store.Get(kv.ServerKey)
	if !ok || string(raw) != `[{"text":"A","category":"X"},{"text":"B","category":"Y"}]` {
		t.Fatalf("server slot = %q (ok=%v)", raw, ok)
	}

	got, err := m.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !got.Equal(c) {
		t.Errorf("Fetch = %v, want %v", got, c)
	}
}

func TestSlotInitializeIfAbsentIsIdempotent(t *testing.T) {
	store := kv.NewMemory()
	m := NewSlot(store, 0)
	ctx := context.Background()

	seed := models.Collection{{Text: "seed", Category: "S"}}
	if err := m.InitializeIfAbsent(ctx, seed); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := m.InitializeIfAbsent(ctx, models.Collection{{Text: "other", Category: "O"}}); err != nil {
		t.Fatalf("second init: %v", err)
	}

	got, err := m.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !got.Equal(seed) {
		t.Errorf("remote = %v, want seed %v", got, seed)
	}
}

func TestSlotDelayHonorsContext(t *testing.T) {
	m := NewSlot(kv.NewMemory(), time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := m.Push(ctx, models.Collection{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Push err = %v, want deadline exceeded", err)
	}
	if m.Delay() != time.Hour {
		t.Errorf("Delay = %v", m.Delay())
	}
}

func TestSlotDelayApplied(t *testing.T) {
	m := NewSlot(kv.NewMemory(), 15*time.Millisecond)
	start := time.Now()
	if err := m.Push(context.Background(), models.Collection{}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("push completed before the simulated delay")
	}
}
