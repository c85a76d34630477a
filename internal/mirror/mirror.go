// Package mirror provides the remote "authoritative" copy of the quote
// collection: either a second key-value slot behind a simulated network delay,
// or an HTTP client for the quotes-mirror server.
package mirror

import (
	"context"
	"errors"

	"github.com/marcus/quotes/internal/models"
)

// ErrMissing is returned by fetches when the remote holds no snapshot. The
// remote is initialized at startup, so this is an error state.
var ErrMissing = errors.New("remote snapshot missing")

// Remote is the remote side of synchronization
type Remote interface {
	// Push overwrites the remote snapshot with c.
	Push(ctx context.Context, c models.Collection) error
	// Fetch returns the decoded remote collection.
	Fetch(ctx context.Context) (models.Collection, error)
	// FetchBytes returns the serialized remote snapshot exactly as stored.
	FetchBytes(ctx context.Context) ([]byte, error)
	// InitializeIfAbsent writes seed only when the remote holds nothing.
	InitializeIfAbsent(ctx context.Context, seed models.Collection) error
}
