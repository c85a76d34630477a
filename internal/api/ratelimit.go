package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	rateWindow      = time.Minute
	cleanupInterval = 5 * time.Minute
)

// RateLimiter implements per-key fixed-window rate limiting.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	count    int
	windowAt time.Time
}

// NewRateLimiter creates an empty RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket), now: time.Now}
}

// Allow checks if the key is within limit requests per one-minute window.
func (rl *RateLimiter) Allow(key string, limit int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= cleanupInterval {
		rl.sweep(now)
	}

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowAt) >= rateWindow {
		rl.buckets[key] = &bucket{count: 1, windowAt: now}
		return true
	}
	if b.count >= limit {
		return false
	}
	b.count++
	return true
}

// sweep drops buckets whose window ended long ago. rl.mu must be held.
func (rl *RateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-2 * rateWindow)
	for k, b := range rl.buckets {
		if b.windowAt.Before(cutoff) {
			delete(rl.buckets, k)
		}
	}
	rl.lastSweep = now
}

// withRateLimit limits handler to limit requests per minute per client IP.
// A limit of zero or less disables limiting.
func (s *Server) withRateLimit(class string, limit int, handler http.HandlerFunc) http.HandlerFunc {
	if limit <= 0 {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.rateLimiter.Allow(class+":"+ip, limit) {
			slog.Warn("rate limited", "ip", ip, "class", class, "req_id", getRequestID(r.Context()))
			s.metrics.RecordRateLimited()
			writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded")
			return
		}
		handler(w, r)
	}
}

// clientIP extracts the client IP from the request, checking X-Forwarded-For first.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the original client
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
