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
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Quota consumption metrics
	ConsumeAttemptsTotal *prometheus.CounterVec
	ConsumeDeniedTotal   *prometheus.CounterVec
	RolloversTotal       *prometheus.CounterVec
	SweptWindowsTotal    prometheus.Counter
	AdminUpdatesTotal    *prometheus.CounterVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreErrorsTotal       *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quotahub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quotahub_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quotahub_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Quota consumption metrics
		ConsumeAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_consume_attempts_total",
				Help: "Total number of quota consumption attempts",
			},
			[]string{"resource_type", "outcome"},
		),
		ConsumeDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_consume_denied_total",
				Help: "Total number of consumption attempts denied over quota",
			},
			[]string{"resource_type"},
		),
		RolloversTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_window_rollovers_total",
				Help: "Total number of usage windows rolled over on write",
			},
			[]string{"resource_type"},
		),
		SweptWindowsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quotahub_swept_windows_total",
				Help: "Total number of expired windows reset by the background sweeper",
			},
		),
		AdminUpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_admin_updates_total",
				Help: "Total number of admin mutations",
			},
			[]string{"operation", "status"},
		),

		// Store metrics
		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_store_operations_total",
				Help: "Total number of quota store operations",
			},
			[]string{"operation", "backend", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quotahub_store_operation_duration_seconds",
				Help:    "Quota store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_store_errors_total",
				Help: "Total number of quota store errors",
			},
			[]string{"operation", "backend", "error_type"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
		CacheInvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotahub_cache_invalidations_total",
				Help: "Total number of cache invalidations after writes",
			},
			[]string{"cache_type"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.ConsumeAttemptsTotal,
		m.ConsumeDeniedTotal,
		m.RolloversTotal,
		m.SweptWindowsTotal,
		m.AdminUpdatesTotal,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.StoreErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidationsTotal,
	)

	return m
}

// ObserveStoreOperation records one store call. errType is empty on
// success; a non-empty errType also counts toward StoreErrorsTotal.
func (m *Metrics) ObserveStoreOperation(operation, backend string, duration time.Duration, errType string) {
	status := "success"
	if errType != "" {
		status = "error"
		m.StoreErrorsTotal.WithLabelValues(operation, backend, errType).Inc()
	}
	m.StoreOperationsTotal.WithLabelValues(operation, backend, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

// ObserveRollover counts a usage window rolled over on the write path.
func (m *Metrics) ObserveRollover(resourceType string) {
	m.RolloversTotal.WithLabelValues(resourceType).Inc()
}

// ObserveConsume records the outcome of a consumption attempt.
func (m *Metrics) ObserveConsume(resourceType string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
		m.ConsumeDeniedTotal.WithLabelValues(resourceType).Inc()
	}
	m.ConsumeAttemptsTotal.WithLabelValues(resourceType, outcome).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
