package api

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects in-memory server metrics using atomic counters and
// mirrors them into a private Prometheus registry.
type Metrics struct {
	startTime    time.Time
	requests     atomic.Int64
	serverErrors atomic.Int64
	clientErrors atomic.Int64
	pushes       atomic.Int64
	fetches      atomic.Int64
	records      atomic.Int64
	rateLimited  atomic.Int64

	registry        *prometheus.Registry
	promRequests    *prometheus.CounterVec
	promPushes      prometheus.Counter
	promFetches     prometheus.Counter
	promRecords     prometheus.Gauge
	promRateLimited prometheus.Counter
}

// MetricsSnapshot is a point-in-time view of server metrics.
type MetricsSnapshot struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Requests      int64   `json:"requests"`
	ServerErrors  int64   `json:"server_errors"`
	ClientErrors  int64   `json:"client_errors"`
	Pushes        int64   `json:"pushes"`
	Fetches       int64   `json:"fetches"`
	Records       int64   `json:"records"`
	RateLimited   int64   `json:"rate_limited"`
}

// NewMetrics creates a new Metrics instance with the current time as start.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),
		promRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotes_mirror_requests_total",
			Help: "HTTP requests by status code.",
		}, []string{"code"}),
		promPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotes_mirror_pushes_total",
			Help: "Snapshots accepted by PUT /v1/quotes.",
		}),
		promFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotes_mirror_fetches_total",
			Help: "Snapshots served by GET /v1/quotes.",
		}),
		promRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quotes_mirror_snapshot_records",
			Help: "Records in the current snapshot.",
		}),
		promRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotes_mirror_rate_limited_total",
			Help: "Requests rejected by the per-client rate limit.",
		}),
	}
	m.registry.MustRegister(m.promRequests, m.promPushes, m.promFetches, m.promRecords, m.promRateLimited)
	return m
}

// RecordRequest counts one request and classifies its status code.
func (m *Metrics) RecordRequest(code int) {
	m.requests.Add(1)
	switch {
	case code >= 500:
		m.serverErrors.Add(1)
	case code >= 400:
		m.clientErrors.Add(1)
	}
	m.promRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// RecordPush counts an accepted snapshot of n records.
func (m *Metrics) RecordPush(n int) {
	m.pushes.Add(1)
	m.records.Store(int64(n))
	m.promPushes.Inc()
	m.promRecords.Set(float64(n))
}

// RecordFetch counts a served snapshot.
func (m *Metrics) RecordFetch() {
	m.fetches.Add(1)
	m.promFetches.Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Add(1)
	m.promRateLimited.Inc()
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		UptimeSeconds: time.Since(m.startTime).Seconds(),
		Requests:      m.requests.Load(),
		ServerErrors:  m.serverErrors.Load(),
		ClientErrors:  m.clientErrors.Load(),
		Pushes:        m.pushes.Load(),
		Fetches:       m.fetches.Load(),
		Records:       m.records.Load(),
		RateLimited:   m.rateLimited.Load(),
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
