package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Layout metrics
	LayoutOps    *prometheus.CounterVec
	TabsOpen     *prometheus.GaugeVec
	StoresLoaded prometheus.Gauge

	// Persistence metrics
	PersistWrites   *prometheus.CounterVec
	PersistDuration prometheus.Histogram
	Migrations      *prometheus.CounterVec
	Fallbacks       prometheus.Counter

	// Session metrics
	SessionsSaved    prometheus.Counter
	SessionsRestored prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for the health endpoint
type MetricsSnapshot struct {
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	LayoutOps     int64   `json:"layout_ops"`
	NoopOps       int64   `json:"noop_ops"`
	PersistErrors int64   `json:"persist_errors"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on its own registry so that
// several collectors can coexist in tests.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamhub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teamhub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		LayoutOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamhub_layout_operations_total",
				Help: "Layout operations applied, by outcome",
			},
			[]string{"op", "outcome"},
		),
		TabsOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "teamhub_layout_tabs_open",
				Help: "Open tabs per workspace",
			},
			[]string{"workspace"},
		),
		StoresLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "teamhub_layout_stores_loaded",
				Help: "Workspace layouts held in memory",
			},
		),

		PersistWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamhub_persist_writes_total",
				Help: "Persisted layout writes, by status",
			},
			[]string{"status"},
		),
		PersistDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "teamhub_persist_duration_seconds",
				Help:    "Time spent writing a layout to storage",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
			},
		),
		Migrations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamhub_persist_migrations_total",
				Help: "Persisted layouts upgraded, by source version",
			},
			[]string{"from"},
		),
		Fallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "teamhub_persist_fallbacks_total",
				Help: "Loads that fell back to the default layout",
			},
		),

		SessionsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "teamhub_sessions_saved_total",
				Help: "Total number of layouts saved",
			},
		),
		SessionsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "teamhub_sessions_restored_total",
				Help: "Total number of layouts restored",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "teamhub_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
	}
}

// Registry exposes the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordLayoutOp records a layout mutation and whether it changed anything
func (m *Metrics) RecordLayoutOp(op string, changed bool) {
	outcome := "applied"
	if !changed {
		outcome = "noop"
	}
	m.LayoutOps.WithLabelValues(op, outcome).Inc()

	m.mu.Lock()
	m.snapshot.LayoutOps++
	if !changed {
		m.snapshot.NoopOps++
	}
	m.mu.Unlock()
}

// SetTabsOpen sets the open tab count of a workspace
func (m *Metrics) SetTabsOpen(workspace string, count int) {
	m.TabsOpen.WithLabelValues(workspace).Set(float64(count))
}

// ForgetWorkspace drops per-workspace series when a layout is evicted
func (m *Metrics) ForgetWorkspace(workspace string) {
	m.TabsOpen.DeleteLabelValues(workspace)
}

// SetStoresLoaded sets the number of layouts held in memory
func (m *Metrics) SetStoresLoaded(count int) {
	m.StoresLoaded.Set(float64(count))
}

// RecordPersist records a storage write
func (m *Metrics) RecordPersist(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		m.mu.Lock()
		m.snapshot.PersistErrors++
		m.mu.Unlock()
	}
	m.PersistWrites.WithLabelValues(status).Inc()
	m.PersistDuration.Observe(duration.Seconds())
}

// RecordMigration records a persisted layout upgraded from an older version
func (m *Metrics) RecordMigration(from string) {
	m.Migrations.WithLabelValues(from).Inc()
}

// IncFallbacks records a load that used the default layout
func (m *Metrics) IncFallbacks() {
	m.Fallbacks.Inc()
}

// IncSessionsSaved increments the sessions saved counter
func (m *Metrics) IncSessionsSaved() {
	m.SessionsSaved.Inc()
}

// IncSessionsRestored increments the sessions restored counter
func (m *Metrics) IncSessionsRestored() {
	m.SessionsRestored.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns the current counter values
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
