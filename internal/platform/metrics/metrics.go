package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the server.
type Metrics struct {
	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Statistics dashboards
	DashboardBuilds  *prometheus.CounterVec
	DashboardLatency *prometheus.HistogramVec
	RecordsScanned   *prometheus.HistogramVec
	WarmRuns         *prometheus.CounterVec

	// Cache
	CacheOps *prometheus.CounterVec

	// Audited access to health records
	RecordAccess *prometheus.CounterVec

	// System
	DBConnections *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses the
// process-wide default registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		DashboardBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dashboard_builds_total",
				Help:      "Dashboards served, by kind and whether they came from cache",
			},
			[]string{"kind", "source"},
		),
		DashboardLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dashboard_build_seconds",
				Help:      "Time spent loading records and assembling a dashboard",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		RecordsScanned: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dashboard_records_scanned",
				Help:      "Records folded into one dashboard (current plus prior period)",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
			[]string{"kind"},
		),
		WarmRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dashboard_warm_runs_total",
				Help:      "Scheduled dashboard pre-computations by outcome",
			},
			[]string{"status"},
		),
		CacheOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_operations_total",
				Help:      "Dashboard cache operations by result",
			},
			[]string{"op", "result"},
		),
		RecordAccess: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_access_total",
				Help:      "Audited patient and child record accesses by resource, action and status class",
			},
			[]string{"resource", "action", "status"},
		),
		DBConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections",
				Help:      "Postgres pool connections by state",
			},
			[]string{"state"},
		),
		gatherer: gatherer,
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a finished request against its route template.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, latency time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// RecordDashboard records a dashboard served from cache or freshly computed.
func (m *Metrics) RecordDashboard(kind string, cached bool, records int, latency time.Duration) {
	source := "computed"
	if cached {
		source = "cache"
	}
	m.DashboardBuilds.WithLabelValues(kind, source).Inc()
	if !cached {
		m.DashboardLatency.WithLabelValues(kind).Observe(latency.Seconds())
		m.RecordsScanned.WithLabelValues(kind).Observe(float64(records))
	}
}

// RecordCache records a cache operation ("get" or "set") and its result.
func (m *Metrics) RecordCache(op, result string) {
	m.CacheOps.WithLabelValues(op, result).Inc()
}

// RecordWarmRun records the outcome of one scheduled warming run.
func (m *Metrics) RecordWarmRun(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.WarmRuns.WithLabelValues(status).Inc()
}

// RecordAudit counts one audited record access. status is folded to its
// class ("2xx", "4xx", ...).
func (m *Metrics) RecordAudit(resource, action string, status int) {
	m.RecordAccess.WithLabelValues(resource, action, strconv.Itoa(status/100)+"xx").Inc()
}

// UpdateDBStats updates database connection metrics.
func (m *Metrics) UpdateDBStats(idle, inUse, total int32) {
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("total").Set(float64(total))
}
