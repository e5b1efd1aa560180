package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SecretsResolved counts secrets turned into properties.
	SecretsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretprops_secrets_resolved_total",
			Help: "Total number of secrets resolved into properties (by backend).",
		},
		[]string{"backend"},
	)

	// SecretAccessTotal tracks secret version access calls by outcome.
	SecretAccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretprops_secret_access_total",
			Help: "Total number of secret version access calls (by backend and status).",
		},
		[]string{"backend", "status"},
	)

	// ResolveFailures counts aborted property source builds by failing stage.
	ResolveFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secretprops_resolve_failures_total",
			Help: "Number of failed property source resolutions (by backend and stage).",
		},
		[]string{"backend", "stage"},
	)

	// ResolveDuration measures a full list-and-access pass.
	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "secretprops_resolve_duration_seconds",
			Help:    "Duration of a full secret resolution pass in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms → ~20s
		},
		[]string{"backend"},
	)
)

// IncSecretAccess increments the access counter.
func IncSecretAccess(backend, status string) {
	SecretAccessTotal.WithLabelValues(backend, status).Inc()
}

// IncResolveFailure increments the failure counter for stage (list, access, decode).
func IncResolveFailure(backend, stage string) {
	ResolveFailures.WithLabelValues(backend, stage).Inc()
}

// AddSecretsResolved adds n to the resolved counter.
func AddSecretsResolved(backend string, n int) {
	SecretsResolved.WithLabelValues(backend).Add(float64(n))
}

// ObserveDuration records elapsed time since start into a HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}
