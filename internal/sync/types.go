package sync

import (
	"bytes"
	"context"
	"time"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/quotes"
)

// State is the engine's phase. Only one check or resolution runs at a time:
// anything arriving while the engine is not idle is ignored.
type State int

const (
	StateIdle State = iota
	StateChecking
	StateInConflict
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateInConflict:
		return "in-conflict"
	}
	return "unknown"
}

// Outcome summarises a single Check call.
type Outcome int

const (
	OutcomeSkipped  Outcome = iota // engine busy or waiting on a decision
	OutcomeInSync                  // local and remote are equal
	OutcomeAdopted                 // remote adopted automatically
	OutcomeConflict                // waiting for a Decision
	OutcomeError                   // remote unavailable or local unreadable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeInSync:
		return "in-sync"
	case OutcomeAdopted:
		return "adopted"
	case OutcomeConflict:
		return "conflict"
	case OutcomeError:
		return "error"
	}
	return "unknown"
}

// Replica is the local side of synchronization. The session implements it.
type Replica interface {
	// Snapshot returns the bytes currently held in the local slot.
	Snapshot() ([]byte, error)
	// Collection returns the in-memory collection.
	Collection() models.Collection
	// Adopt replaces the in-memory collection with c, persists it locally
	// without pushing, recomputes categories and notifies observers. The
	// in-memory collection is replaced even if persisting fails.
	Adopt(c models.Collection) error
	// Refresh recomputes categories and notifies observers.
	Refresh()
}

// Notifier receives a status notification on every engine transition and
// resolver outcome.
type Notifier interface {
	Notify(n models.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(models.Notification)

func (f NotifierFunc) Notify(n models.Notification) { f(n) }

// Notifiers fans a notification out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) Notify(n models.Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(n)
		}
	}
}

// Divergence describes a detected difference between local and remote.
type Divergence struct {
	Local      []byte
	Remote     []byte
	DetectedAt time.Time

	// Decoded forms; nil when the bytes do not decode.
	LocalCollection  models.Collection
	RemoteCollection models.Collection
}

func newDivergence(local, remote []byte, at time.Time) Divergence {
	d := Divergence{Local: local, Remote: remote, DetectedAt: at}
	if c, err := quotes.Decode(local); err == nil {
		d.LocalCollection = c
	}
	if c, err := quotes.Decode(remote); err == nil {
		d.RemoteCollection = c
	}
	return d
}

// Strategy decides what happens when a divergence is detected.
type Strategy interface {
	Policy() models.Policy
	// ResolveDivergence returns true if the divergence was resolved and the
	// engine can return to idle, false to wait for an explicit Decision.
	ResolveDivergence(ctx context.Context, d Divergence) (bool, error)
}

// Comparator reports whether local and remote snapshots are in sync.
type Comparator func(local, remote []byte) bool

// BytesEqual compares serialized snapshots byte for byte.
func BytesEqual(local, remote []byte) bool {
	return bytes.Equal(local, remote)
}

// StructurallyEqual decodes both snapshots and compares records in order.
// Snapshots that do not decode fall back to byte comparison.
func StructurallyEqual(local, remote []byte) bool {
	lc, lerr := quotes.Decode(local)
	rc, rerr := quotes.Decode(remote)
	if lerr != nil || rerr != nil {
		return bytes.Equal(local, remote)
	}
	return lc.Equal(rc)
}

// ComparatorFor returns the comparator for mode, defaulting to BytesEqual.
func ComparatorFor(mode models.CompareMode) Comparator {
	if mode == models.CompareStructural {
		return StructurallyEqual
	}
	return BytesEqual
}
