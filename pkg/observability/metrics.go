package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Audit metrics
	AuditRecordsTotal      *prometheus.CounterVec
	AuditWriteFailures     prometheus.Counter
	AuditWritesDropped     prometheus.Counter
	AuditIdentityFailures  *prometheus.CounterVec
	AuditExportRowsTotal   prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Rate limit metrics
	RateLimitRejections prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminpanel_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adminpanel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuditRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminpanel_audit_records_total",
				Help: "Total number of audit records persisted",
			},
			[]string{"action"},
		),
		AuditWriteFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adminpanel_audit_write_failures_total",
				Help: "Total number of audit record writes rejected by the store",
			},
		),
		AuditWritesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adminpanel_audit_writes_dropped_total",
				Help: "Total number of audit writes dropped by the concurrency bound",
			},
		),
		AuditIdentityFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adminpanel_audit_identity_failures_total",
				Help: "Total number of audit captures abandoned during identity resolution",
			},
			[]string{"reason"},
		),
		AuditExportRowsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adminpanel_audit_export_rows_total",
				Help: "Total number of audit rows written to CSV exports",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "adminpanel_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "adminpanel_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		RateLimitRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adminpanel_ratelimit_rejections_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuditRecordsTotal,
		m.AuditWriteFailures,
		m.AuditWritesDropped,
		m.AuditIdentityFailures,
		m.AuditExportRowsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.RateLimitRejections,
	)

	return m
}

// Handler returns the HTTP handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps an HTTP handler with request metrics.
// The path label uses the route template, not the raw URL, to bound cardinality.
func (m *Metrics) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
