// Package session ties the quote collection to its storage, mirror and sync
// engine. A Session replaces process-wide state: every user action goes
// through one.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marcus/quotes/internal/config"
	"github.com/marcus/quotes/internal/kv"
	"github.com/marcus/quotes/internal/mirror"
	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/persist"
	"github.com/marcus/quotes/internal/quotes"
	"github.com/marcus/quotes/internal/schedule"
	qsync "github.com/marcus/quotes/internal/sync"
)

var (
	// ErrInvalidRecord means text or category was empty after trimming
	ErrInvalidRecord = errors.New("quote text and category are required")
	// ErrUnknownCategory means a filter named a category no quote has
	ErrUnknownCategory = errors.New("unknown category")
)

// Options configure a Session
type Options struct {
	Store    kv.Store      // required
	Remote   mirror.Remote // nil uses a slot mirror over Store
	Delay    time.Duration // slot mirror latency
	Policy   models.Policy
	Compare  models.CompareMode
	Interval time.Duration
	AutoPush bool
	Notifier qsync.Notifier
}

// Session owns the in-memory collection and everything that reads or
// replaces it.
type Session struct {
	ID string

	store    kv.Store
	local    *persist.Local
	remote   mirror.Remote
	sched    *schedule.Scheduler
	engine   *qsync.Engine
	resolver *qsync.Resolver
	autoPush bool
	closers  []io.Closer

	mu        sync.RWMutex
	col       models.Collection
	cats      []string
	observers []func(models.Collection)
	last      models.Notification

	closeOnce sync.Once
}

// Open loads the collection (seeding defaults when the store is empty) and
// initializes the remote if it has never been written.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, errors.New("session: store is required")
	}
	remote := opts.Remote
	if remote == nil {
		remote = mirror.NewSlot(opts.Store, opts.Delay)
	}

	s := &Session{
		ID:       uuid.NewString(),
		store:    opts.Store,
		remote:   remote,
		sched:    schedule.New(context.Background()),
		autoPush: opts.AutoPush,
	}
	s.local = persist.New(opts.Store, remote, s.sched)
	s.col = s.local.Load()
	s.cats = quotes.Categories(s.col)

	notifier := qsync.Notifiers{qsync.NotifierFunc(s.record), opts.Notifier}
	s.engine = qsync.NewEngine(s, remote, qsync.Options{
		Policy:   opts.Policy,
		Compare:  opts.Compare,
		Interval: opts.Interval,
		Notifier: notifier,
	})
	s.resolver = qsync.NewResolver(s.engine)

	if err := remote.InitializeIfAbsent(ctx, quotes.Defaults()); err != nil {
		slog.Warn("initialize remote", "err", err)
	}
	slog.Debug("session opened", "session", s.ID, "records", len(s.col), "policy", s.engine.Policy())
	return s, nil
}

// OpenConfig opens the SQLite store under settings.DataDir and a session over
// it. The remote is the HTTP mirror when settings.RemoteURL is set.
func OpenConfig(ctx context.Context, settings config.Settings, notifier qsync.Notifier) (*Session, error) {
	store, err := kv.Open(settings.DataDir)
	if err != nil {
		return nil, err
	}
	var remote mirror.Remote
	if settings.RemoteURL != "" {
		remote = mirror.NewHTTP(settings.RemoteURL)
	}
	s, err := Open(ctx, Options{
		Store:    store,
		Remote:   remote,
		Delay:    settings.Delay,
		Policy:   settings.Policy,
		Compare:  settings.Compare,
		Interval: settings.Interval,
		AutoPush: settings.AutoPush,
		Notifier: notifier,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	s.closers = append(s.closers, store)
	return s, nil
}

// Close stops periodic checks, waits for in-flight pushes and releases the store
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.engine.Stop()
		s.sched.Close()
		for _, c := range s.closers {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// Start runs the periodic sync check until Stop or Close
func (s *Session) Start() {
	s.engine.Start(s.sched)
}

// Stop cancels the periodic sync check
func (s *Session) Stop() {
	s.engine.Stop()
}

// OnChange registers fn to run with the new collection after every mutation,
// adoption and resolution.
func (s *Session) OnChange(fn func(models.Collection)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Collection returns a copy of the current collection
func (s *Session) Collection() models.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.Clone()
}

// Categories returns the current category index
func (s *Session) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.cats...)
}

// Add appends a quote. The record is kept in memory even if persisting fails,
// in which case the error wraps persist.ErrStorageWrite.
func (s *Session) Add(text, category string) (models.Record, error) {
	r := models.Record{Text: text, Category: category}.Normalize()
	if !r.Valid() {
		return models.Record{}, ErrInvalidRecord
	}

	s.mu.Lock()
	s.col = append(s.col, r)
	err := s.commitLocked(s.autoPush)
	s.mu.Unlock()

	s.changed()
	return r, err
}

// Import replaces the collection with the records in data. Malformed input
// leaves the collection untouched and returns quotes.ErrMalformedImport.
func (s *Session) Import(data []byte) (int, error) {
	c, err := quotes.DecodeImport(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.col = c
	err = s.commitLocked(s.autoPush)
	s.mu.Unlock()

	s.changed()
	slog.Info("imported quotes", "records", len(c))
	return len(c), err
}

// Export returns the collection as indented JSON
func (s *Session) Export() ([]byte, error) {
	return quotes.EncodePretty(s.Collection())
}

// commitLocked recomputes categories and writes the collection. s.mu must be held.
func (s *Session) commitLocked(push bool) error {
	s.cats = quotes.Categories(s.col)
	return s.local.Save(s.col, push)
}

// Filter returns the selected category, "" meaning all
func (s *Session) Filter() string {
	return s.local.Filter()
}

// SetFilter selects a category for Random. "" or "all" clears the filter.
func (s *Session) SetFilter(category string) error {
	category = strings.TrimSpace(category)
	if category != "" && !strings.EqualFold(category, quotes.AllCategories) {
		known := false
		for _, c := range s.Categories() {
			if c == category {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
	}
	return s.local.SetFilter(category)
}

// Random picks a quote from the filtered collection and remembers it as
// the last viewed quote. It reports false when nothing matches.
func (s *Session) Random() (models.Record, bool) {
	pool := quotes.ByCategory(s.Collection(), s.Filter())
	r, ok := quotes.Random(pool)
	if !ok {
		return models.Record{}, false
	}
	if err := s.local.SetLastViewed(r.Text); err != nil {
		slog.Warn("remember last viewed quote", "err", err)
	}
	return r, true
}

// LastViewed returns the last quote shown by Random, if it still exists
func (s *Session) LastViewed() (models.Record, bool) {
	text, ok := s.local.LastViewed()
	if !ok {
		return models.Record{}, false
	}
	return quotes.FindText(s.Collection(), text)
}

// Search returns quotes fuzzily matching query
func (s *Session) Search(query string) models.Collection {
	return quotes.Search(s.Collection(), strings.TrimSpace(query))
}

// Check runs one sync comparison
func (s *Session) Check(ctx context.Context) (qsync.Outcome, error) {
	return s.engine.Check(ctx)
}

// Resolve applies a decision to a pending conflict
func (s *Session) Resolve(ctx context.Context, d models.Decision) error {
	return s.resolver.Resolve(ctx, d)
}

// State returns the sync engine phase
func (s *Session) State() qsync.State {
	return s.engine.State()
}

// Pending returns the unresolved divergence, if any
func (s *Session) Pending() (qsync.Divergence, bool) {
	return s.engine.Pending()
}

// Policy returns the configured conflict policy
func (s *Session) Policy() models.Policy {
	return s.engine.Policy()
}

// Interval returns the periodic sync interval
func (s *Session) Interval() time.Duration {
	return s.engine.Interval()
}

// LastNotification returns the most recent sync notification
func (s *Session) LastNotification() models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Remote returns the mirror the session syncs with
func (s *Session) Remote() mirror.Remote {
	return s.remote
}

func (s *Session) record(n models.Notification) {
	s.mu.Lock()
	s.last = n
	s.mu.Unlock()
}

func (s *Session) changed() {
	s.mu.RLock()
	observers := append([]func(models.Collection){}, s.observers...)
	c := s.col.Clone()
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(c)
	}
}
