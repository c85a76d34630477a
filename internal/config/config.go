// Package config resolves client settings.
//
// Every setting follows the same priority: QUOTES_* environment variable,
// then ~/.config/quotes/config.json, then the built-in default.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/quotes/internal/models"
)

// SyncConfig holds sync-related settings. Pointer and string fields are left
// empty when unset so the defaults stay in one place.
type SyncConfig struct {
	Interval  string `json:"interval,omitempty"` // duration string, default "5s"
	Delay     string `json:"delay,omitempty"`    // simulated mirror latency, default "0s"
	Policy    string `json:"policy,omitempty"`   // server | manual
	Compare   string `json:"compare,omitempty"`  // bytes | structural
	RemoteURL string `json:"remote_url,omitempty"`
	AutoPush  *bool  `json:"auto_push,omitempty"` // nil = default true
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
	File   string `json:"file,omitempty"`
}

// Config is the client config stored at ~/.config/quotes/config.json.
type Config struct {
	DataDir string     `json:"data_dir,omitempty"`
	Sync    SyncConfig `json:"sync"`
	Log     LogConfig  `json:"log"`
}

const (
	DefaultInterval = 5 * time.Second
	DefaultPolicy   = models.PolicyServer
	DefaultCompare  = models.CompareBytes
)

// Dir returns ~/.config/quotes, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "quotes")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Path returns the config file location
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file. A missing file is an empty config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config file using a temp file and rename
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// loadOrEmpty is Load for getters: an unreadable file counts as unset
func loadOrEmpty() *Config {
	cfg, err := Load()
	if err != nil {
		return &Config{}
	}
	return cfg
}

// GetDataDir returns the directory holding store.db.
// Priority: QUOTES_DATA_DIR env > config.json data_dir > ~/.local/share/quotes
func GetDataDir() string {
	if v := os.Getenv("QUOTES_DATA_DIR"); v != "" {
		return v
	}
	if cfg := loadOrEmpty(); cfg.DataDir != "" {
		return cfg.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quotes"
	}
	return filepath.Join(home, ".local", "share", "quotes")
}

// GetSyncInterval returns the periodic check interval.
// Priority: QUOTES_SYNC_INTERVAL env > config.json sync.interval > 5s
func GetSyncInterval() time.Duration {
	if d, ok := parsePositiveDuration(os.Getenv("QUOTES_SYNC_INTERVAL")); ok {
		return d
	}
	if d, ok := parsePositiveDuration(loadOrEmpty().Sync.Interval); ok {
		return d
	}
	return DefaultInterval
}

// GetSyncDelay returns the simulated mirror latency. Zero is valid.
// Priority: QUOTES_SYNC_DELAY env > config.json sync.delay > 0
func GetSyncDelay() time.Duration {
	if d, ok := parseDuration(os.Getenv("QUOTES_SYNC_DELAY")); ok {
		return d
	}
	if d, ok := parseDuration(loadOrEmpty().Sync.Delay); ok {
		return d
	}
	return 0
}

// GetSyncPolicy returns the conflict policy.
// Priority: QUOTES_SYNC_POLICY env > config.json sync.policy > server
func GetSyncPolicy() models.Policy {
	if p, ok := models.ParsePolicy(os.Getenv("QUOTES_SYNC_POLICY")); ok {
		return p
	}
	if p, ok := models.ParsePolicy(loadOrEmpty().Sync.Policy); ok {
		return p
	}
	return DefaultPolicy
}

// GetSyncCompare returns the snapshot comparison mode.
// Priority: QUOTES_SYNC_COMPARE env > config.json sync.compare > bytes
func GetSyncCompare() models.CompareMode {
	if m, ok := models.ParseCompareMode(os.Getenv("QUOTES_SYNC_COMPARE")); ok {
		return m
	}
	if m, ok := models.ParseCompareMode(loadOrEmpty().Sync.Compare); ok {
		return m
	}
	return DefaultCompare
}

// GetRemoteURL returns the mirror server URL. Empty selects the local slot mirror.
// Priority: QUOTES_REMOTE_URL env > config.json sync.remote_url > ""
func GetRemoteURL() string {
	if v := os.Getenv("QUOTES_REMOTE_URL"); v != "" {
		return v
	}
	return loadOrEmpty().Sync.RemoteURL
}

// GetAutoPush returns whether add and import push to the mirror.
// Priority: QUOTES_AUTO_PUSH env > config.json sync.auto_push > true
func GetAutoPush() bool {
	if v := parseBoolEnv("QUOTES_AUTO_PUSH"); v != nil {
		return *v
	}
	if cfg := loadOrEmpty(); cfg.Sync.AutoPush != nil {
		return *cfg.Sync.AutoPush
	}
	return true
}

// GetLogLevel returns the log level name.
// Priority: QUOTES_LOG_LEVEL env > config.json log.level > "warn"
func GetLogLevel() string {
	if v := os.Getenv("QUOTES_LOG_LEVEL"); v != "" {
		return v
	}
	if cfg := loadOrEmpty(); cfg.Log.Level != "" {
		return cfg.Log.Level
	}
	return "warn"
}

// GetLogFormat returns "json" or "text".
// Priority: QUOTES_LOG_FORMAT env > config.json log.format > "text"
func GetLogFormat() string {
	if v := os.Getenv("QUOTES_LOG_FORMAT"); v != "" {
		return v
	}
	if cfg := loadOrEmpty(); cfg.Log.Format != "" {
		return cfg.Log.Format
	}
	return "text"
}

// GetLogFile returns the log file path, empty for stderr.
// Priority: QUOTES_LOG_FILE env > config.json log.file > ""
func GetLogFile() string {
	if v := os.Getenv("QUOTES_LOG_FILE"); v != "" {
		return v
	}
	return loadOrEmpty().Log.File
}

// Settings is the fully resolved client configuration
type Settings struct {
	DataDir   string
	Interval  time.Duration
	Delay     time.Duration
	Policy    models.Policy
	Compare   models.CompareMode
	RemoteURL string
	AutoPush  bool
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Resolve evaluates every getter once
func Resolve() Settings {
	return Settings{
		DataDir:   GetDataDir(),
		Interval:  GetSyncInterval(),
		Delay:     GetSyncDelay(),
		Policy:    GetSyncPolicy(),
		Compare:   GetSyncCompare(),
		RemoteURL: GetRemoteURL(),
		AutoPush:  GetAutoPush(),
		LogLevel:  GetLogLevel(),
		LogFormat: GetLogFormat(),
		LogFile:   GetLogFile(),
	}
}

// Value returns the effective value of a config key as text
func (s Settings) Value(key string) (string, bool) {
	switch key {
	case "data_dir":
		return s.DataDir, true
	case "sync.interval":
		return s.Interval.String(), true
	case "sync.delay":
		return s.Delay.String(), true
	case "sync.policy":
		return string(s.Policy), true
	case "sync.compare":
		return string(s.Compare), true
	case "sync.remote_url":
		return s.RemoteURL, true
	case "sync.auto_push":
		return strconv.FormatBool(s.AutoPush), true
	case "log.level":
		return s.LogLevel, true
	case "log.format":
		return s.LogFormat, true
	case "log.file":
		return s.LogFile, true
	}
	return "", false
}

// Keys lists the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(cfg *Config, v string) error{
	"data_dir": func(cfg *Config, v string) error {
		cfg.DataDir = v
		return nil
	},
	"sync.interval": func(cfg *Config, v string) error {
		if _, ok := parsePositiveDuration(v); !ok && v != "" {
			return fmt.Errorf("invalid duration %q", v)
		}
		cfg.Sync.Interval = v
		return nil
	},
	"sync.delay": func(cfg *Config, v string) error {
		if _, ok := parseDuration(v); !ok && v != "" {
			return fmt.Errorf("invalid duration %q", v)
		}
		cfg.Sync.Delay = v
		return nil
	},
	"sync.policy": func(cfg *Config, v string) error {
		if _, ok := models.ParsePolicy(v); !ok && v != "" {
			return fmt.Errorf("invalid policy %q (want server or manual)", v)
		}
		cfg.Sync.Policy = v
		return nil
	},
	"sync.compare": func(cfg *Config, v string) error {
		if _, ok := models.ParseCompareMode(v); !ok && v != "" {
			return fmt.Errorf("invalid compare mode %q (want bytes or structural)", v)
		}
		cfg.Sync.Compare = v
		return nil
	},
	"sync.remote_url": func(cfg *Config, v string) error {
		cfg.Sync.RemoteURL = v
		return nil
	},
	"sync.auto_push": func(cfg *Config, v string) error {
		if v == "" {
			cfg.Sync.AutoPush = nil
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid bool %q", v)
		}
		cfg.Sync.AutoPush = &b
		return nil
	},
	"log.level": func(cfg *Config, v string) error {
		cfg.Log.Level = v
		return nil
	},
	"log.format": func(cfg *Config, v string) error {
		if v != "" && v != "json" && v != "text" {
			return fmt.Errorf("invalid log format %q (want json or text)", v)
		}
		cfg.Log.Format = v
		return nil
	},
	"log.file": func(cfg *Config, v string) error {
		cfg.Log.File = v
		return nil
	},
}

// Set validates and stores one key in the config file. An empty value
// clears the key back to its default.
func Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := set(cfg, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return Save(cfg)
}

func parseDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

func parsePositiveDuration(s string) (time.Duration, bool) {
	d, ok := parseDuration(s)
	return d, ok && d > 0
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := strings.ToLower(os.Getenv(envKey))
	switch v {
	case "1", "true":
		b := true
		return &b
	case "0", "false":
		b := false
		return &b
	}
	return nil
}
