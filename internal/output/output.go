// Package output provides styled terminal output helpers (success, error,
// warning, quote and notification formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/quotes/internal/models"
)

var (
	// Styles
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	categoryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	severityStyles = map[models.Severity]lipgloss.Style{
		models.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.SeveritySuccess: successStyle,
		models.SeverityWarning: warningStyle,
		models.SeverityError:   errorStyle,
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidInput      = "invalid_input"
	ErrCodeMalformedImport   = "malformed_import"
	ErrCodeStorageError      = "storage_error"
	ErrCodeRemoteUnavailable = "remote_unavailable"
	ErrCodeInvalidResolution = "invalid_resolution"
	ErrCodeConflict          = "conflict"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
	fmt.Println(string(data))
}

// NoQuotesMessage is shown when there is nothing to display
const NoQuotesMessage = "No quotes available. Add some!"

// FormatQuote formats a record for plain (non-markdown) display
func FormatQuote(r models.Record) string {
	return fmt.Sprintf("%q\n  %s", r.Text, categoryStyle.Render("["+r.Category+"]"))
}

// FormatRecordLine formats a record as one line no wider than width cells.
// The index is 1-based for display.
func FormatRecordLine(i int, r models.Record, width int) string {
	prefix := subtleStyle.Render(fmt.Sprintf("%3d.", i))
	cat := categoryStyle.Render("[" + r.Category + "]")
	room := width - ansi.StringWidth(prefix) - ansi.StringWidth(cat) - 2
	text := r.Text
	if room > 0 {
		text = ansi.Truncate(text, room, "…")
	}
	return prefix + " " + text + " " + cat
}

// FormatCategories formats the category index with the selected filter marked
func FormatCategories(cats []string, selected string) string {
	if len(cats) == 0 {
		return subtleStyle.Render("(no categories)")
	}
	var sb strings.Builder
	for _, c := range cats {
		mark := "  "
		if c == selected {
			mark = "* "
		}
		sb.WriteString(mark + categoryStyle.Render(c) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatNotification formats a sync notification styled by severity
func FormatNotification(n models.Notification) string {
	style, ok := severityStyles[n.Severity]
	if !ok {
		return n.Message
	}
	return style.Render(fmt.Sprintf("[%s] %s", n.Status, n.Message))
}

// FormatDivergence summarizes both sides of a conflict for a prompt
func FormatDivergence(local, remote models.Collection) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Sync conflict"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Local:  %d quotes, %d new\n", len(local), countMissing(local, remote)))
	sb.WriteString(fmt.Sprintf("  Server: %d quotes, %d new", len(remote), countMissing(remote, local)))
	return sb.String()
}

// countMissing returns how many records in a are absent from b
func countMissing(a, b models.Collection) int {
	seen := make(map[models.Record]int, len(b))
	for _, r := range b {
		seen[r]++
	}
	n := 0
	for _, r := range a {
		if seen[r] > 0 {
			seen[r]--
			continue
		}
		n++
	}
	return n
}

// StatusNotifier writes each notification to W. It satisfies the sync
// engine's Notifier interface.
type StatusNotifier struct {
	W io.Writer
	// MinSeverity suppresses notifications below it; syncing chatter is info
	MinSeverity models.Severity

	mu sync.Mutex
}

var severityRank = map[models.Severity]int{
	models.SeverityInfo:    0,
	models.SeveritySuccess: 1,
	models.SeverityWarning: 2,
	models.SeverityError:   3,
}

func (s *StatusNotifier) Notify(n models.Notification) {
	if severityRank[n.Severity] < severityRank[s.MinSeverity] {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.W, FormatNotification(n))
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// SectionHeader returns a formatted section header for CLI output
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}
