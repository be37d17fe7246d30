package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session tracker operations (start/stop/resume/delete/update) by outcome.
	SessionOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operation_count",
			Help: "Total number of time-tracking session operations",
		},
		[]string{"operation", "outcome"},
	)

	// Recorded length of closed sessions, in minutes.
	SessionDurationMinutes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "session_duration_minutes",
			Help:    "Duration of stopped time-tracking sessions in minutes",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1min to ~68h
		},
	)

	// Billing calculator latency, per derived report.
	BillingComputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_compute_duration_seconds",
			Help:    "Billing calculation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"report"}, // report: stats, billable_amount, period_rates
	)

	// Project stats cache effectiveness.
	StatsCacheCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_cache_count",
			Help: "Project stats cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Payments ingested from the invoicing layer.
	PaymentIngestedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_ingested_count",
			Help: "Total number of payment.recorded events processed",
		},
		[]string{"status"}, // status: success, duplicate, invalid, error
	)

	// Database queries exceeding the slow-query threshold.
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of slow database queries",
		},
		[]string{"query"},
	)
)

// IncrementSessionOperation counts one tracker operation.
func IncrementSessionOperation(operation, outcome string) {
	SessionOperationCount.WithLabelValues(operation, outcome).Inc()
}

// RecordSessionDuration observes the recorded minutes of a stopped session.
func RecordSessionDuration(minutes int) {
	SessionDurationMinutes.Observe(float64(minutes))
}

// RecordBillingComputeDuration observes one billing calculation.
func RecordBillingComputeDuration(report string, duration time.Duration) {
	BillingComputeDuration.WithLabelValues(report).Observe(duration.Seconds())
}

// IncrementStatsCache counts one cache lookup result.
func IncrementStatsCache(result string) {
	StatsCacheCount.WithLabelValues(result).Inc()
}

// RecordHTTPRequestDuration observes one handled HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementPaymentIngested counts one payment.recorded event.
func IncrementPaymentIngested(status string) {
	PaymentIngestedCount.WithLabelValues(status).Inc()
}

// IncrementSlowQuery counts one query over the slow threshold.
func IncrementSlowQuery(query string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(query).Inc()
}
