package watch

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/quotes/internal/models"
)

// Bridge forwards session callbacks to the view. It never blocks the
// caller: when the buffer is full the event is dropped. The view re-reads
// the collection on every event, so a later NotificationMsg or ChangedMsg
// catches up on anything lost.
type Bridge struct {
	ch chan tea.Msg
}

// NewBridge returns a bridge with room for size pending events.
func NewBridge(size int) *Bridge {
	if size <= 0 {
		size = 16
	}
	return &Bridge{ch: make(chan tea.Msg, size)}
}

// Events is the channel to hand to New.
func (b *Bridge) Events() <-chan tea.Msg {
	return b.ch
}

// Notify implements the sync engine's Notifier.
func (b *Bridge) Notify(n models.Notification) {
	b.send(NotificationMsg(n))
}

// Changed is an OnChange observer.
func (b *Bridge) Changed(c models.Collection) {
	b.send(ChangedMsg{Count: len(c)})
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}
