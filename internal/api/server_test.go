package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marcus/quotes/internal/kv"
)

// newTestServer creates a Server backed by an in-memory store.
func newTestServer(t *testing.T, modCfg func(*Config)) (*Server, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	cfg := Config{ListenAddr: ":0"}
	if modCfg != nil {
		modCfg(&cfg)
	}
	srv, err := NewServer(cfg, store)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return srv, store
}

func doRequest(srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status: got %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error.Code != code {
		t.Fatalf("error code: got %q, want %q", resp.Error.Code, code)
	}
}

func TestNewServerRequiresStore(t *testing.T) {
	if _, err := NewServer(Config{}, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doRequest(srv, "GET", "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
}

func TestHealthWithSQLite(t *testing.T) {
	store, err := kv.Open(filepath.Join(t.TempDir(), "mirror"))
	if err != nil {
		t.Fatal(err)
	}
	srv, err := NewServer(Config{}, store)
	if err != nil {
		t.Fatal(err)
	}
	if w := doRequest(srv, "GET", "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthy store: got %d", w.Code)
	}
	store.Close()
	if w := doRequest(srv, "GET", "/healthz", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("closed store: got %d, want 503", w.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	id := "6f1c1b7e-6a39-4d8b-9a0e-0d2f2f2b1c11"
	w := doRequest(srv, "GET", "/healthz", "", map[string]string{"X-Request-ID": id})
	if got := w.Header().Get("X-Request-ID"); got != id {
		t.Fatalf("request id: got %q, want %q", got, id)
	}
	w = doRequest(srv, "GET", "/healthz", "", map[string]string{"X-Request-ID": "not-a-uuid"})
	if got := w.Header().Get("X-Request-ID"); got == "not-a-uuid" || got == "" {
		t.Fatalf("invalid request id not replaced: %q", got)
	}
}

func TestGetQuotesMissing(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doRequest(srv, "GET", "/v1/quotes", "", nil)
	assertError(t, w, http.StatusNotFound, ErrCodeNotFound)
}

func TestPutThenGetReturnsCanonicalBytes(t *testing.T) {
	srv, store := newTestServer(t, nil)

	body := `[ {"category":"X", "text":"A"} ]`
	w := doRequest(srv, "PUT", "/v1/quotes", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT: got %d (%s)", w.Code, w.Body.String())
	}
	var put PutResponse
	json.Unmarshal(w.Body.Bytes(), &put)
	if put.Records != 1 {
		t.Fatalf("PUT records: got %d, want 1", put.Records)
	}

	want := `[{"text":"A","category":"X"}]`
	stored, _, _ := store.Get(kv.ServerKey)
	if string(stored) != want {
		t.Fatalf("stored: got %s, want %s", stored, want)
	}

	w = doRequest(srv, "GET", "/v1/quotes", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET: got %d", w.Code)
	}
	if got := w.Body.String(); got != want {
		t.Fatalf("GET body: got %q, want %q", got, want)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: %q", ct)
	}
}

func TestPutRejectsNonArray(t *testing.T) {
	srv, store := newTestServer(t, nil)
	for _, body := range []string{`{"not":"an array"}`, `garbage`, ``, `"text"`} {
		w := doRequest(srv, "PUT", "/v1/quotes", body, nil)
		assertError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	}
	if _, ok, _ := store.Get(kv.ServerKey); ok {
		t.Fatal("rejected body was stored")
	}
}

func TestPutIfNoneMatch(t *testing.T) {
	srv, store := newTestServer(t, nil)
	cond := map[string]string{"If-None-Match": "*"}

	w := doRequest(srv, "PUT", "/v1/quotes", `[{"text":"seed","category":"S"}]`, cond)
	if w.Code != http.StatusOK {
		t.Fatalf("first conditional PUT: got %d", w.Code)
	}
	w = doRequest(srv, "PUT", "/v1/quotes", `[]`, cond)
	assertError(t, w, http.StatusPreconditionFailed, ErrCodeAlreadyExists)

	stored, _, _ := store.Get(kv.ServerKey)
	if string(stored) != `[{"text":"seed","category":"S"}]` {
		t.Fatalf("conditional PUT overwrote snapshot: %s", stored)
	}

	// Unconditional PUT still replaces
	w = doRequest(srv, "PUT", "/v1/quotes", `[]`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unconditional PUT: got %d", w.Code)
	}
	stored, _, _ = store.Get(kv.ServerKey)
	if string(stored) != `[]` {
		t.Fatalf("stored: %s", stored)
	}
}

func TestConcurrentConditionalPutsOneWins(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	var wg sync.WaitGroup
	codes := make(chan int, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := doRequest(srv, "PUT", "/v1/quotes", `[]`, map[string]string{"If-None-Match": "*"})
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	ok := 0
	for c := range codes {
		if c == http.StatusOK {
			ok++
		}
	}
	if ok != 1 {
		t.Fatalf("successful conditional PUTs: got %d, want 1", ok)
	}
}

func TestPutBodyTooLarge(t *testing.T) {
	srv, _ := newTestServer(t, func(c *Config) { c.MaxBodyBytes = 16 })
	w := doRequest(srv, "PUT", "/v1/quotes", `[{"text":"this is far too long","category":"X"}]`, nil)
	assertError(t, w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doRequest(srv, "DELETE", "/v1/quotes", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE: got %d, want 405", w.Code)
	}
}

func TestMetricsCounters(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	doRequest(srv, "GET", "/v1/quotes", "", nil) // 404
	doRequest(srv, "PUT", "/v1/quotes", `[{"text":"A","category":"X"},{"text":"B","category":"Y"}]`, nil)
	doRequest(srv, "GET", "/v1/quotes", "", nil)
	doRequest(srv, "PUT", "/v1/quotes", `{}`, nil) // 400

	snap := srv.Metrics().Snapshot()
	if snap.Requests != 4 {
		t.Errorf("requests: got %d, want 4", snap.Requests)
	}
	if snap.ClientErrors != 2 {
		t.Errorf("client errors: got %d, want 2", snap.ClientErrors)
	}
	if snap.Pushes != 1 || snap.Fetches != 1 || snap.Records != 2 {
		t.Errorf("pushes/fetches/records: got %d/%d/%d", snap.Pushes, snap.Fetches, snap.Records)
	}

	w := doRequest(srv, "GET", "/metricz", "", nil)
	var got MetricsSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("metricz: %v", err)
	}
	if got.Pushes != 1 {
		t.Errorf("metricz pushes: got %d", got.Pushes)
	}
}

func TestPrometheusExposition(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	doRequest(srv, "PUT", "/v1/quotes", `[{"text":"A","category":"X"}]`, nil)

	w := doRequest(srv, "GET", "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"quotes_mirror_pushes_total 1",
		"quotes_mirror_snapshot_records 1",
		`quotes_mirror_requests_total{code="200"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestDelayHonorsCancellation(t *testing.T) {
	srv, _ := newTestServer(t, func(c *Config) { c.Delay = time.Hour })
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := &http.Client{Timeout: 50 * time.Millisecond}
	_, err := client.Get(ts.URL + "/v1/quotes")
	if err == nil {
		t.Fatal("expected timeout")
	}
	var nerr interface{ Timeout() bool }
	if !errors.As(err, &nerr) || !nerr.Timeout() {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestStartAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	addr, err := srv.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: got %d", resp.StatusCode)
	}
	if err := srv.Shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("MIRROR_LISTEN_ADDR", "127.0.0.1:9999")
	t.Setenv("MIRROR_DATA_DIR", "/var/lib/quotes")
	t.Setenv("MIRROR_DELAY", "1s")
	t.Setenv("MIRROR_MAX_BODY_BYTES", "bogus")
	t.Setenv("MIRROR_CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("MIRROR_RATE_LIMIT_GET", "0")
	t.Setenv("MIRROR_RATE_LIMIT_PUT", "-5")

	cfg := LoadConfig()
	if cfg.ListenAddr != "127.0.0.1:9999" || cfg.DataDir != "/var/lib/quotes" {
		t.Errorf("addr/dir: %q %q", cfg.ListenAddr, cfg.DataDir)
	}
	if cfg.Delay != time.Second {
		t.Errorf("delay: %v", cfg.Delay)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("invalid max body should keep default, got %d", cfg.MaxBodyBytes)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Errorf("log defaults: %q %q", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.RateLimitGet != 0 || cfg.RateLimitPut != 60 {
		t.Errorf("rate limits: get=%d put=%d", cfg.RateLimitGet, cfg.RateLimitPut)
	}
}

func TestWriteRawDoesNotReencode(t *testing.T) {
	w := httptest.NewRecorder()
	writeRaw(w, http.StatusOK, []byte(`[1,2]`))
	if !bytes.Equal(w.Body.Bytes(), []byte(`[1,2]`)) {
		t.Fatalf("body: %q", w.Body.String())
	}
}
