package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcus/quotes/internal/models"
)

// isolate points HOME at a temp dir and clears every QUOTES_ variable
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"QUOTES_DATA_DIR", "QUOTES_SYNC_INTERVAL", "QUOTES_SYNC_DELAY",
		"QUOTES_SYNC_POLICY", "QUOTES_SYNC_COMPARE", "QUOTES_REMOTE_URL",
		"QUOTES_AUTO_PUSH", "QUOTES_LOG_LEVEL", "QUOTES_LOG_FORMAT", "QUOTES_LOG_FILE",
	} {
		t.Setenv(k, "")
	}
	return home
}

func writeConfig(t *testing.T, home string, cfg Config) {
	t.Helper()
	dir := filepath.Join(home, ".config", "quotes")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(cfg)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	home := isolate(t)

	s := Resolve()
	if s.Interval != 5*time.Second {
		t.Errorf("interval: got %v, want 5s", s.Interval)
	}
	if s.Delay != 0 {
		t.Errorf("delay: got %v, want 0", s.Delay)
	}
	if s.Policy != models.PolicyServer {
		t.Errorf("policy: got %q, want server", s.Policy)
	}
	if s.Compare != models.CompareBytes {
		t.Errorf("compare: got %q, want bytes", s.Compare)
	}
	if !s.AutoPush {
		t.Error("auto_push: got false, want true")
	}
	if s.RemoteURL != "" {
		t.Errorf("remote_url: got %q, want empty", s.RemoteURL)
	}
	if want := filepath.Join(home, ".local", "share", "quotes"); s.DataDir != want {
		t.Errorf("data_dir: got %q, want %q", s.DataDir, want)
	}
	if s.LogLevel != "warn" || s.LogFormat != "text" || s.LogFile != "" {
		t.Errorf("log: got %q/%q/%q", s.LogLevel, s.LogFormat, s.LogFile)
	}
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	home := isolate(t)
	off := false
	writeConfig(t, home, Config{
		DataDir: "/srv/quotes",
		Sync: SyncConfig{
			Interval: "30s", Delay: "250ms", Policy: "manual",
			Compare: "structural", RemoteURL: "http://mirror:8080", AutoPush: &off,
		},
		Log: LogConfig{Level: "debug", Format: "json", File: "/tmp/q.log"},
	})

	s := Resolve()
	if s.DataDir != "/srv/quotes" {
		t.Errorf("data_dir: got %q", s.DataDir)
	}
	if s.Interval != 30*time.Second || s.Delay != 250*time.Millisecond {
		t.Errorf("durations: got %v/%v", s.Interval, s.Delay)
	}
	if s.Policy != models.PolicyManual || s.Compare != models.CompareStructural {
		t.Errorf("policy/compare: got %q/%q", s.Policy, s.Compare)
	}
	if s.RemoteURL != "http://mirror:8080" || s.AutoPush {
		t.Errorf("remote: got %q auto_push=%v", s.RemoteURL, s.AutoPush)
	}
	if s.LogLevel != "debug" || s.LogFormat != "json" || s.LogFile != "/tmp/q.log" {
		t.Errorf("log: got %q/%q/%q", s.LogLevel, s.LogFormat, s.LogFile)
	}
}

func TestEnvOverridesConfig(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, Config{Sync: SyncConfig{Interval: "30s", Policy: "server"}})
	t.Setenv("QUOTES_SYNC_INTERVAL", "2s")
	t.Setenv("QUOTES_SYNC_POLICY", "MANUAL")
	t.Setenv("QUOTES_AUTO_PUSH", "0")

	if got := GetSyncInterval(); got != 2*time.Second {
		t.Fatalf("env interval: got %v, want 2s", got)
	}
	if got := GetSyncPolicy(); got != models.PolicyManual {
		t.Fatalf("env policy: got %q, want manual", got)
	}
	if GetAutoPush() {
		t.Fatal("env auto_push: got true, want false")
	}
}

func TestInvalidValuesFallThrough(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, Config{Sync: SyncConfig{Interval: "10s"}})
	t.Setenv("QUOTES_SYNC_INTERVAL", "soon")
	t.Setenv("QUOTES_SYNC_POLICY", "coin-flip")
	t.Setenv("QUOTES_SYNC_DELAY", "-1s")

	if got := GetSyncInterval(); got != 10*time.Second {
		t.Errorf("invalid env interval: got %v, want 10s from file", got)
	}
	if got := GetSyncPolicy(); got != models.PolicyServer {
		t.Errorf("invalid env policy: got %q, want default", got)
	}
	if got := GetSyncDelay(); got != 0 {
		t.Errorf("negative env delay: got %v, want 0", got)
	}
}

func TestZeroIntervalIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("QUOTES_SYNC_INTERVAL", "0s")
	if got := GetSyncInterval(); got != DefaultInterval {
		t.Fatalf("zero interval: got %v, want default", got)
	}
}

func TestSetRoundTrip(t *testing.T) {
	isolate(t)

	if err := Set("sync.policy", "manual"); err != nil {
		t.Fatalf("Set policy: %v", err)
	}
	if err := Set("sync.auto_push", "false"); err != nil {
		t.Fatalf("Set auto_push: %v", err)
	}
	if got := GetSyncPolicy(); got != models.PolicyManual {
		t.Errorf("policy after Set: got %q", got)
	}
	if GetAutoPush() {
		t.Error("auto_push after Set: got true")
	}

	// Empty value clears back to default
	if err := Set("sync.policy", ""); err != nil {
		t.Fatalf("clear policy: %v", err)
	}
	if got := GetSyncPolicy(); got != DefaultPolicy {
		t.Errorf("policy after clear: got %q", got)
	}
}

func TestSetRejectsBadInput(t *testing.T) {
	isolate(t)

	tests := []struct{ key, value string }{
		{"sync.policy", "coin-flip"},
		{"sync.compare", "fuzzy"},
		{"sync.interval", "-3s"},
		{"sync.auto_push", "maybe"},
		{"log.format", "xml"},
		{"no.such.key", "x"},
	}
	for _, tc := range tests {
		if err := Set(tc.key, tc.value); err == nil {
			t.Errorf("Set(%q, %q): expected error", tc.key, tc.value)
		}
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.Policy != "" || cfg.Sync.Compare != "" {
		t.Errorf("rejected values were stored: %+v", cfg.Sync)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "quotes")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
	// Getters treat an unreadable file as unset
	if got := GetSyncPolicy(); got != DefaultPolicy {
		t.Fatalf("policy with bad file: got %q", got)
	}
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	if len(keys) != 10 {
		t.Fatalf("keys: got %d, want 10", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}

func TestSettingsValueCoversEveryKey(t *testing.T) {
	isolate(t)
	s := Resolve()
	for _, k := range Keys() {
		if _, ok := s.Value(k); !ok {
			t.Errorf("Value(%q) not handled", k)
		}
	}
	if _, ok := s.Value("nope"); ok {
		t.Error("unknown key should not resolve")
	}
	if v, _ := s.Value("sync.interval"); v != "5s" {
		t.Errorf("sync.interval: got %q", v)
	}
}
