package api

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the mirror server configuration, loaded from environment variables.
type Config struct {
	ListenAddr      string
	DataDir         string // holds store.db
	ShutdownTimeout time.Duration
	Delay           time.Duration // simulated latency before every quotes request
	MaxBodyBytes    int64
	LogFormat       string // "json" (default) or "text"
	LogLevel        string // "debug", "info" (default), "warn", "error"

	// Requests per minute per client IP; zero disables the limit
	RateLimitGet int
	RateLimitPut int

	CORSAllowedOrigins []string // allowed origins for browser clients; empty = disabled
}

// LoadConfig reads configuration from environment variables with sensible defaults.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:      ":8080",
		DataDir:         "./data",
		ShutdownTimeout: 30 * time.Second,
		MaxBodyBytes:    1 << 20,
		LogFormat:       "json",
		LogLevel:        "info",
		RateLimitGet:    300,
		RateLimitPut:    60,
	}

	if v := os.Getenv("MIRROR_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("MIRROR_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MIRROR_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("MIRROR_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.Delay = d
		}
	}
	if v := os.Getenv("MIRROR_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("MIRROR_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("MIRROR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MIRROR_RATE_LIMIT_GET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RateLimitGet = n
		}
	}
	if v := os.Getenv("MIRROR_RATE_LIMIT_PUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RateLimitPut = n
		}
	}

	if v := os.Getenv("MIRROR_CORS_ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return cfg
}
