// Package api implements the quotes-mirror HTTP server: a single remote
// snapshot readable with GET /v1/quotes and replaceable with PUT /v1/quotes.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marcus/quotes/internal/kv"
)

// Pinger is implemented by stores that can report their health
type Pinger interface {
	Ping() error
}

// Server is the HTTP API server for quotes-mirror.
type Server struct {
	config      Config
	http        *http.Server
	store       kv.Store
	metrics     *Metrics
	rateLimiter *RateLimiter

	// serializes the read-check-write of conditional PUTs
	writeMu sync.Mutex
}

// NewServer creates a new Server with the given config and store.
func NewServer(cfg Config, store kv.Store) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("api: store is required")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		config:      cfg,
		store:       store,
		metrics:     NewMetrics(),
		rateLimiter: NewRateLimiter(),
	}

	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Metrics returns the server's counters.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins listening for HTTP requests (non-blocking). It returns the
// bound address, which differs from the configured one for ":0".
func (s *Server) Start() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	return ln.Addr(), nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// routes builds the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health & metrics
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metricz", s.handleMetrics)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Snapshot
	mux.HandleFunc("GET /v1/quotes", s.withRateLimit("get", s.config.RateLimitGet, s.withDelay(s.handleGetQuotes)))
	mux.HandleFunc("PUT /v1/quotes", s.withRateLimit("put", s.config.RateLimitPut, s.withDelay(s.handlePutQuotes)))

	return chain(mux, recoveryMiddleware, requestIDMiddleware, loggerMiddleware, metricsMiddleware(s.metrics), loggingMiddleware, s.CORSMiddleware, maxBytesMiddleware(s.config.MaxBodyBytes))
}

// withDelay simulates network latency before the handler runs
func (s *Server) withDelay(handler http.HandlerFunc) http.HandlerFunc {
	if s.config.Delay <= 0 {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		t := time.NewTimer(s.config.Delay)
		defer t.Stop()
		select {
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "request cancelled")
			return
		case <-t.C:
		}
		handler(w, r)
	}
}

// handleHealth returns a health check response, pinging the store when it can.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(Pinger); ok {
		if err := p.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "store unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics returns a snapshot of server metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
