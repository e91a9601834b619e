package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyloom_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyloom_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Turn pipeline metrics
	turnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storyloom_turns_total",
			Help: "Total number of completed story turns",
		},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyloom_stage_duration_seconds",
			Help:    "Generation call duration per pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	generationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyloom_generation_failures_total",
			Help: "Total number of degraded generation calls per stage",
		},
		[]string{"stage"},
	)

	// Session metrics
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storyloom_sessions_active",
			Help: "Number of registered story sessions",
		},
	)

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			turnsTotal,
			stageDuration,
			generationFailures,
			activeSessions,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTurn counts one completed turn
func RecordTurn() {
	turnsTotal.Inc()
}

// ObserveStageDuration records a generation call duration for a stage
func ObserveStageDuration(stage string, seconds float64) {
	stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordGenerationFailure counts a degraded generation call for a stage
func RecordGenerationFailure(stage string) {
	generationFailures.WithLabelValues(stage).Inc()
}

// IncActiveSessions increments the session gauge
func IncActiveSessions() {
	activeSessions.Inc()
}

// DecActiveSessions decrements the session gauge
func DecActiveSessions() {
	activeSessions.Dec()
}
