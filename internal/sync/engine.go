// Package sync reconciles the local quote collection with the remote mirror.
//
// The Engine compares the local and remote snapshots on a timer. When they
// differ, its Strategy either adopts the remote collection (server
// precedence) or parks the engine in-conflict until a Resolver applies a
// user's Decision.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/marcus/quotes/internal/mirror"
	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/schedule"
)

var (
	// ErrRemoteUnavailable means the remote snapshot could not be read.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrInvalidResolution means Resolve was called outside in-conflict.
	ErrInvalidResolution = errors.New("invalid resolution request")
)

// DefaultInterval is the periodic check interval.
const DefaultInterval = 5 * time.Second

// Options configure an Engine.
type Options struct {
	Policy   models.Policy
	Compare  models.CompareMode
	Interval time.Duration
	Notifier Notifier
	Now      func() time.Time
}

// Engine detects divergence between the replica and the remote.
type Engine struct {
	replica  Replica
	remote   mirror.Remote
	strategy Strategy
	compare  Comparator
	notifier Notifier
	interval time.Duration
	now      func() time.Time

	mu      gosync.Mutex
	state   State
	pending *Divergence
	stop    func()

	comparisons atomic.Int64
}

// NewEngine creates an idle engine.
func NewEngine(replica Replica, remote mirror.Remote, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(models.Notification) {})
	}
	return &Engine{
		replica:  replica,
		remote:   remote,
		strategy: StrategyFor(opts.Policy, replica),
		compare:  ComparatorFor(opts.Compare),
		notifier: opts.Notifier,
		interval: opts.Interval,
		now:      opts.Now,
	}
}

// Policy returns the configured conflict policy.
func (e *Engine) Policy() models.Policy {
	return e.strategy.Policy()
}

// Interval returns the periodic check interval.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// State returns the current phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Pending returns the unresolved divergence while in-conflict.
func (e *Engine) Pending() (Divergence, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateInConflict || e.pending == nil {
		return Divergence{}, false
	}
	return *e.pending, true
}

// Comparisons returns how many snapshot comparisons have been performed.
func (e *Engine) Comparisons() int64 {
	return e.comparisons.Load()
}

// Start runs Check every interval on sched until Stop or sched.Close.
func (e *Engine) Start(sched *schedule.Scheduler) {
	stop := sched.Every(e.interval, func(ctx context.Context) {
		if _, err := e.Check(ctx); err != nil {
			slog.Debug("sync: periodic check", "err", err)
		}
	})
	e.mu.Lock()
	e.stop = stop
	e.mu.Unlock()
}

// Stop cancels the periodic check. A check already running completes.
func (e *Engine) Stop() {
	e.mu.Lock()
	stop := e.stop
	e.stop = nil
	e.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Check compares local and remote once. It returns OutcomeSkipped without
// doing anything if another check is in flight or a conflict is pending.
func (e *Engine) Check(ctx context.Context) (Outcome, error) {
	if !e.transition(StateIdle, StateChecking) {
		slog.Debug("sync: check skipped", "state", e.State())
		return OutcomeSkipped, nil
	}
	e.notify(models.SyncSyncing, models.SeverityInfo, "Checking server for updates...")

	remote, err := e.remote.FetchBytes(ctx)
	if err != nil {
		e.setState(StateIdle)
		err = fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		slog.Warn("sync: fetch remote", "err", err)
		e.notify(models.SyncError, models.SeverityError, "Server data unavailable. Try again later.")
		return OutcomeError, err
	}

	local, err := e.replica.Snapshot()
	if err != nil {
		e.setState(StateIdle)
		slog.Warn("sync: read local", "err", err)
		e.notify(models.SyncError, models.SeverityError, "Local quotes could not be read.")
		return OutcomeError, err
	}

	e.comparisons.Add(1)
	if e.compare(local, remote) {
		e.setState(StateIdle)
		e.notify(models.SyncIdle, models.SeveritySuccess, "Quotes are in sync with the server.")
		return OutcomeInSync, nil
	}

	// Still checking while the strategy runs; only an unresolved divergence
	// is parked in-conflict.
	d := newDivergence(local, remote, e.now())
	slog.Info("sync: divergence detected", "policy", e.Policy(), "local_bytes", len(local), "remote_bytes", len(remote))

	resolved, err := e.strategy.ResolveDivergence(ctx, d)
	if err != nil {
		e.clearConflict()
		slog.Warn("sync: resolve divergence", "err", err)
		e.notify(models.SyncError, models.SeverityError, fmt.Sprintf("Could not apply server data: %v", err))
		return OutcomeError, err
	}
	if resolved {
		e.clearConflict()
		e.notify(models.SyncResolved, models.SeveritySuccess,
			fmt.Sprintf("Server data adopted: %d quotes.", len(d.RemoteCollection)))
		return OutcomeAdopted, nil
	}

	e.mu.Lock()
	e.state = StateInConflict
	e.pending = &d
	e.mu.Unlock()
	e.notify(models.SyncConflict, models.SeverityWarning,
		fmt.Sprintf("Conflict: local has %d quotes, server has %d. Keep local or keep server?",
			len(d.LocalCollection), len(d.RemoteCollection)))
	return OutcomeConflict, nil
}

// transition moves from -> to atomically, reporting whether it happened.
func (e *Engine) transition(from, to State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != from {
		return false
	}
	e.state = to
	return true
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) clearConflict() {
	e.mu.Lock()
	e.state = StateIdle
	e.pending = nil
	e.mu.Unlock()
}

func (e *Engine) notify(status models.SyncStatus, sev models.Severity, msg string) {
	e.notifier.Notify(models.Notification{
		Status:   status,
		Severity: sev,
		Message:  msg,
		At:       e.now(),
	})
}
