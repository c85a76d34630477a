package session

import (
	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/quotes"
)

// The methods below let the sync engine read and replace the collection.

// Snapshot returns the bytes in the local slot
func (s *Session) Snapshot() ([]byte, error) {
	return s.local.Snapshot()
}

// Adopt replaces the collection with c without pushing it back to the
// remote. The in-memory collection changes even if persisting fails.
func (s *Session) Adopt(c models.Collection) error {
	s.mu.Lock()
	s.col = c.Clone()
	err := s.commitLocked(false)
	s.mu.Unlock()

	s.changed()
	return err
}

// Refresh recomputes categories and notifies observers
func (s *Session) Refresh() {
	s.mu.Lock()
	s.cats = quotes.Categories(s.col)
	s.mu.Unlock()

	s.changed()
}
