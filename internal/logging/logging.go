// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select the handler
type Options struct {
	Level  string // debug | info | warn | error
	Format string // json | text
	File   string // rotated log file; empty writes to Stderr
	Stderr io.Writer
}

// ParseLevel maps a level name to a slog.Level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger for opts. The returned closer releases the log file
// and is never nil.
func New(opts Options) (*slog.Logger, io.Closer) {
	var w io.Writer = opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err == nil {
			lj := &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
			w, closer = lj, lj
		}
	}

	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	if strings.ToLower(opts.Format) == "json" {
		handler = slog.NewJSONHandler(w, ho)
	} else {
		handler = slog.NewTextHandler(w, ho)
	}
	return slog.New(handler), closer
}

// Setup installs the logger for opts as slog's default
func Setup(opts Options) io.Closer {
	logger, closer := New(opts)
	slog.SetDefault(logger)
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
