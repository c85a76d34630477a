package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcus/quotes/internal/mirror"
	"github.com/marcus/quotes/internal/models"
)

// Resolver applies a user's Decision to an engine that is in-conflict.
type Resolver struct {
	engine *Engine
}

// NewResolver returns a resolver for e.
func NewResolver(e *Engine) *Resolver {
	return &Resolver{engine: e}
}

// Resolve applies d. Outside in-conflict it returns ErrInvalidResolution and
// changes nothing. If applying d fails the engine stays in-conflict so the
// decision can be retried.
func (r *Resolver) Resolve(ctx context.Context, d models.Decision) error {
	e := r.engine
	if d != models.KeepLocal && d != models.KeepRemote {
		return fmt.Errorf("%w: unknown decision %q", ErrInvalidResolution, d)
	}

	// checking blocks ticks and concurrent resolves while the decision applies
	if !e.transition(StateInConflict, StateChecking) {
		state := e.State()
		slog.Debug("sync: resolve ignored", "decision", d, "state", state)
		return fmt.Errorf("%w: engine is %s", ErrInvalidResolution, state)
	}

	var msg string
	var err error
	switch d {
	case models.KeepRemote:
		msg, err = r.keepRemote(ctx)
	case models.KeepLocal:
		msg, err = r.keepLocal(ctx)
	}
	if err != nil {
		e.setState(StateInConflict)
		slog.Warn("sync: resolve", "decision", d, "err", err)
		e.notify(models.SyncError, models.SeverityError, fmt.Sprintf("Could not apply %s: %v", d, err))
		return err
	}

	e.clearConflict()
	slog.Info("sync: conflict resolved", "decision", d)
	e.notify(models.SyncResolved, models.SeveritySuccess, msg)
	return nil
}

func (r *Resolver) keepRemote(ctx context.Context) (string, error) {
	e := r.engine
	c, err := e.remote.Fetch(ctx)
	if err != nil {
		if errors.Is(err, mirror.ErrMissing) {
			return "", fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		}
		return "", fmt.Errorf("fetch remote: %w", err)
	}
	if err := e.replica.Adopt(c); err != nil {
		return "", err
	}
	return fmt.Sprintf("Conflict resolved: kept server data (%d quotes).", len(c)), nil
}

func (r *Resolver) keepLocal(ctx context.Context) (string, error) {
	e := r.engine
	c := e.replica.Collection()
	if err := e.remote.Push(ctx, c); err != nil {
		return "", fmt.Errorf("push local: %w", err)
	}
	e.replica.Refresh()
	return fmt.Sprintf("Conflict resolved: kept local data (%d quotes) and updated the server.", len(c)), nil
}
