// Package persist stores the quote collection in the local key-value slot.
//
// Storage and decode faults never abort the session: Load falls back to the
// seed collection and Save leaves the caller's in-memory collection as the
// source of truth. Both log the fault and report it to the caller.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marcus/quotes/internal/kv"
	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/quotes"
)

var (
	ErrStorageWrite = errors.New("storage write failure")
	ErrStorageRead  = errors.New("storage read failure")
)

// Pusher receives the collection after a save that requests a push
type Pusher interface {
	Push(ctx context.Context, c models.Collection) error
}

// Runner starts background work; *schedule.Scheduler satisfies it
type Runner interface {
	Go(fn func(ctx context.Context)) bool
}

// Local is the local persistence adapter
type Local struct {
	store  kv.Store
	key    string
	remote Pusher
	runner Runner
	seed   func() models.Collection
}

// New returns an adapter over store. remote and runner may be nil, in which
// case saves never push.
func New(store kv.Store, remote Pusher, runner Runner) *Local {
	return &Local{
		store:  store,
		key:    kv.LocalKey,
		remote: remote,
		runner: runner,
		seed:   quotes.Defaults,
	}
}

// Load returns the stored collection. When nothing is stored the seed
// collection is written and returned. A read or decode fault returns the seed
// without touching storage.
func (l *Local) Load() models.Collection {
	c, err := l.load()
	if err != nil {
		slog.Error("load local quotes", "err", err)
		return l.seed()
	}
	return c
}

// LoadErr is Load that also reports the fault that forced a seed fallback
func (l *Local) LoadErr() (models.Collection, error) {
	c, err := l.load()
	if err != nil {
		slog.Error("load local quotes", "err", err)
		return l.seed(), err
	}
	return c, nil
}

func (l *Local) load() (models.Collection, error) {
	data, ok, err := l.store.Get(l.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	if !ok {
		seed := l.seed()
		if err := l.Save(seed, false); err != nil {
			// still usable in memory
			return seed, nil
		}
		slog.Debug("seeded local quotes", "records", len(seed))
		return seed, nil
	}
	c, err := quotes.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	return c, nil
}

// Save replaces the stored snapshot with c. When push is true and a remote is
// configured, the collection is pushed in the background after the write
// succeeds; the caller does not wait for it.
func (l *Local) Save(c models.Collection, push bool) error {
	data, err := quotes.Encode(c)
	if err != nil {
		slog.Error("save local quotes", "err", err)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := l.store.Set(l.key, data); err != nil {
		slog.Error("save local quotes", "err", err)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	if push && l.remote != nil && l.runner != nil {
		snapshot := c.Clone()
		l.runner.Go(func(ctx context.Context) {
			if err := l.remote.Push(ctx, snapshot); err != nil {
				slog.Warn("background push failed", "err", err)
				return
			}
			slog.Debug("background push done", "records", len(snapshot))
		})
	}
	return nil
}

// Snapshot returns the raw bytes held in the local slot, or nil when empty
func (l *Local) Snapshot() ([]byte, error) {
	data, ok, err := l.store.Get(l.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	if !ok {
		return nil, nil
	}
	return data, nil
}

// Filter returns the persisted category filter, or "" for none
func (l *Local) Filter() string {
	data, ok, err := l.store.Get(kv.FilterKey)
	if err != nil {
		slog.Warn("read category filter", "err", err)
		return ""
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetFilter persists category as the selected filter. An empty category or
// "all" clears it.
func (l *Local) SetFilter(category string) error {
	category = strings.TrimSpace(category)
	var err error
	if category == "" || strings.EqualFold(category, quotes.AllCategories) {
		err = l.store.Remove(kv.FilterKey)
	} else {
		err = l.store.Set(kv.FilterKey, []byte(category))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

// LastViewed returns the text of the last displayed quote
func (l *Local) LastViewed() (string, bool) {
	data, ok, err := l.store.Get(kv.LastViewedKey)
	if err != nil || !ok || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// SetLastViewed remembers text as the last displayed quote
func (l *Local) SetLastViewed(text string) error {
	if err := l.store.Set(kv.LastViewedKey, []byte(text)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}
