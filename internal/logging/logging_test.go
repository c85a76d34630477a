package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Options{Level: "info", Format: "json", Stderr: &buf})
	defer closer.Close()

	logger.Info("pushed", "records", 3)
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not JSON: %q", buf.String())
	}
	if entry["msg"] != "pushed" || entry["records"] != float64(3) {
		t.Fatalf("entry: %v", entry)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Level: "warn", Format: "text", Stderr: &buf})

	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output: %q", out)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "quotes.log")
	var stderr bytes.Buffer
	logger, closer := New(Options{Level: "debug", File: path, Stderr: &stderr})

	logger.Debug("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("log file: %q", data)
	}
	if stderr.Len() != 0 {
		t.Fatalf("stderr got output: %q", stderr.String())
	}
}
