// Package watch is the interactive terminal view of a quotes session. It
// shows a quote, the live sync status, and lets the user answer conflicts
// raised by the periodic sync engine.
package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/quotes/internal/models"
	"github.com/marcus/quotes/internal/output"
	"github.com/marcus/quotes/internal/quotes"
	qsync "github.com/marcus/quotes/internal/sync"
)

// Session is what the view needs from a quotes session
type Session interface {
	Random() (models.Record, bool)
	Collection() models.Collection
	Categories() []string
	Filter() string
	SetFilter(category string) error
	Add(text, category string) (models.Record, error)
	Check(ctx context.Context) (qsync.Outcome, error)
	Resolve(ctx context.Context, d models.Decision) error
	State() qsync.State
	Pending() (qsync.Divergence, bool)
	Policy() models.Policy
}

// TickMsg refreshes relative timestamps
type TickMsg time.Time

// NotificationMsg carries a sync notification from the engine
type NotificationMsg models.Notification

// ChangedMsg reports that the collection was replaced or extended
type ChangedMsg struct{ Count int }

// CheckResultMsg is the result of a manual sync
type CheckResultMsg struct {
	Outcome qsync.Outcome
	Err     error
}

// ResolveResultMsg is the result of a conflict decision
type ResolveResultMsg struct {
	Decision models.Decision
	Err      error
}

const refreshInterval = time.Second

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
	alertStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("214")).Padding(0, 2)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model implements tea.Model
type Model struct {
	sess   Session
	events <-chan tea.Msg
	keys   KeyMap
	help   help.Model

	quote    models.Record
	hasQuote bool
	status   models.Notification
	count    int
	errMsg   string
	busy     bool

	adding bool
	inputs []textinput.Model
	focus  int

	width, height int
	now           time.Time
}

// New returns a view over sess. events delivers NotificationMsg and
// ChangedMsg values from the session; see Bridge.
func New(sess Session, events <-chan tea.Msg) Model {
	text := textinput.New()
	text.Placeholder = "Quote text"
	text.CharLimit = 500
	text.Width = 50
	cat := textinput.New()
	cat.Placeholder = "Category"
	cat.CharLimit = 50
	cat.Width = 30

	m := Model{
		sess:   sess,
		events: events,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		inputs: []textinput.Model{text, cat},
		count:  len(sess.Collection()),
		now:    time.Now(),
	}
	m.quote, m.hasQuote = sess.Random()
	m.syncConflictKeys()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.scheduleTick(), m.waitForEvent())
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// waitForEvent blocks on the next session event
func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// reconcile re-reads the collection size and replaces the displayed quote
// if an adopted snapshot dropped it.
func (m *Model) reconcile() {
	c := m.sess.Collection()
	m.count = len(c)
	if m.hasQuote {
		if _, ok := quotes.FindText(c, m.quote.Text); !ok {
			m.quote, m.hasQuote = m.sess.Random()
		}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		m.now = time.Time(msg)
		return m, m.scheduleTick()

	case NotificationMsg:
		m.status = models.Notification(msg)
		// a ChangedMsg may have been dropped by the bridge
		m.reconcile()
		m.syncConflictKeys()
		return m, m.waitForEvent()

	case ChangedMsg:
		m.reconcile()
		return m, m.waitForEvent()

	case CheckResultMsg:
		m.busy = false
		m.errMsg = ""
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		}
		m.syncConflictKeys()
		return m, nil

	case ResolveResultMsg:
		m.busy = false
		m.errMsg = ""
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		}
		m.syncConflictKeys()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Next):
		m.quote, m.hasQuote = m.sess.Random()

	case key.Matches(msg, m.keys.Filter):
		m.cycleFilter()
		m.quote, m.hasQuote = m.sess.Random()

	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.focus = 0
		for i := range m.inputs {
			m.inputs[i].Reset()
		}
		return m, m.focusInput()

	case key.Matches(msg, m.keys.Sync):
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.check()

	case key.Matches(msg, m.keys.KeepLocal):
		return m.resolve(models.KeepLocal)

	case key.Matches(msg, m.keys.KeepRemote):
		return m.resolve(models.KeepRemote)
	}
	return m, nil
}

func (m Model) resolve(d models.Decision) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	sess := m.sess
	return m, func() tea.Msg {
		return ResolveResultMsg{Decision: d, Err: sess.Resolve(context.Background(), d)}
	}
}

func (m Model) check() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		out, err := sess.Check(context.Background())
		return CheckResultMsg{Outcome: out, Err: err}
	}
}

// cycleFilter moves the category filter to the next category, wrapping
// through "all"
func (m *Model) cycleFilter() {
	cats := m.sess.Categories()
	current := m.sess.Filter()
	next := ""
	if current == "" && len(cats) > 0 {
		next = cats[0]
	} else {
		for i, c := range cats {
			if c == current && i+1 < len(cats) {
				next = cats[i+1]
				break
			}
		}
	}
	if err := m.sess.SetFilter(next); err != nil {
		m.errMsg = err.Error()
	}
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.adding = false
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.focus = (m.focus + 1) % len(m.inputs)
		return m, m.focusInput()

	case key.Matches(msg, m.keys.Submit):
		if m.focus == 0 {
			m.focus = 1
			return m, m.focusInput()
		}
		r, err := m.sess.Add(m.inputs[0].Value(), m.inputs[1].Value())
		if err != nil && r == (models.Record{}) {
			m.errMsg = err.Error()
			return m, nil
		}
		m.adding = false
		m.errMsg = ""
		if err != nil {
			m.errMsg = err.Error()
		}
		m.quote, m.hasQuote = r, true
		m.count = len(m.sess.Collection())
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusInput() tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	return m.inputs[m.focus].Focus()
}

func (m *Model) syncConflictKeys() {
	m.keys.setConflict(m.sess.State() == qsync.StateInConflict)
}

// View implements tea.Model
func (m Model) View() string {
	var sb strings.Builder

	filter := m.sess.Filter()
	if filter == "" {
		filter = quotes.AllCategories
	}
	sb.WriteString(headerStyle.Render("quotes"))
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  %d quotes  category: %s  policy: %s", m.count, filter, m.sess.Policy())))
	sb.WriteString("\n\n")

	if m.adding {
		sb.WriteString(m.viewAdding())
	} else if m.hasQuote {
		sb.WriteString(boxStyle.Render(output.FormatQuote(m.quote)))
	} else {
		sb.WriteString(boxStyle.Render(output.NoQuotesMessage))
	}
	sb.WriteString("\n")

	if d, ok := m.sess.Pending(); ok && m.sess.State() == qsync.StateInConflict {
		sb.WriteString(alertStyle.Render(output.FormatDivergence(d.LocalCollection, d.RemoteCollection) +
			"\n\n[l] keep local   [r] keep server"))
		sb.WriteString("\n")
	}

	if m.status.Message != "" {
		sb.WriteString(output.FormatNotification(m.status))
		sb.WriteString(mutedStyle.Render("  " + since(m.status.At, m.now)))
		sb.WriteString("\n")
	}
	if m.busy {
		sb.WriteString(mutedStyle.Render("working..."))
		sb.WriteString("\n")
	}
	if m.errMsg != "" {
		sb.WriteString(errStyle.Render(m.errMsg))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) viewAdding() string {
	var sb strings.Builder
	sb.WriteString("Add a quote\n\n")
	for _, in := range m.inputs {
		sb.WriteString(in.View())
		sb.WriteString("\n")
	}
	sb.WriteString(mutedStyle.Render("\nenter: next/save  tab: switch field  esc: cancel"))
	return boxStyle.Render(sb.String())
}

func since(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	d := now.Sub(at)
	if d < time.Second {
		return "now"
	}
	return d.Truncate(time.Second).String() + " ago"
}

// Run starts the view on the terminal and blocks until the user quits
func Run(sess Session, events <-chan tea.Msg) error {
	p := tea.NewProgram(New(sess, events), tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
