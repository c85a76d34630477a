package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/quotes/internal/kv"
	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/quotes"
	"github.com/marcus/quotes/internal/schedule"
)

// Slot simulates a server with a key-value slot and an artificial delay
// before every push and fetch.
type Slot struct {
	store kv.Store
	key   string
	delay time.Duration
}

// NewSlot returns a mirror stored under kv.ServerKey in store
func NewSlot(store kv.Store, delay time.Duration) *Slot {
	return &Slot{store: store, key: kv.ServerKey, delay: delay}
}

// Delay returns the simulated latency
func (s *Slot) Delay() time.Duration {
	return s.delay
}

func (s *Slot) Push(ctx context.Context, c models.Collection) error {
	data, err := quotes.Encode(c)
	if err != nil {
		return err
	}
	if err := schedule.Sleep(ctx, s.delay); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	if err := s.store.Set(s.key, data); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	slog.Debug("mirror: pushed", "records", len(c))
	return nil
}

func (s *Slot) FetchBytes(ctx context.Context) ([]byte, error) {
	if err := schedule.Sleep(ctx, s.delay); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	data, ok, err := s.store.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if !ok {
		return nil, ErrMissing
	}
	return data, nil
}

func (s *Slot) Fetch(ctx context.Context) (models.Collection, error) {
	data, err := s.FetchBytes(ctx)
	if err != nil {
		return nil, err
	}
	return quotes.Decode(data)
}

func (s *Slot) InitializeIfAbsent(ctx context.Context, seed models.Collection) error {
	_, ok, err := s.store.Get(s.key)
	if err != nil {
		return fmt.Errorf("initialize remote: %w", err)
	}
	if ok {
		return nil
	}
	data, err := quotes.Encode(seed)
	if err != nil {
		return err
	}
	if err := s.store.Set(s.key, data); err != nil {
		return fmt.Errorf("initialize remote: %w", err)
	}
	slog.Debug("mirror: initialized", "records", len(seed))
	return nil
}
