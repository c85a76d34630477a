package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/marcus/quotes/internal/models"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// IsTerminal reports whether stdout is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// QuoteMarkdown returns the markdown form of a record: a blockquote with the
// category in italics.
func QuoteMarkdown(r models.Record) string {
	lines := strings.Split(r.Text, "\n")
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString("> " + l + "\n")
	}
	sb.WriteString(">\n")
	sb.WriteString(fmt.Sprintf("> *%s*\n", r.Category))
	return sb.String()
}

// RenderQuote renders a record with Glamour, falling back to FormatQuote
func RenderQuote(r models.Record) string {
	rendered, err := RenderMarkdown(QuoteMarkdown(r))
	if err != nil || rendered == "" {
		return FormatQuote(r)
	}
	return rendered
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}
