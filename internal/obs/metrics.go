// Package obs holds the operational Prometheus metrics for the agent.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GenerationRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_requests_total",
		Help: "Number of post generation requests received",
	})
	GenerationAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "generation_attempts_total",
		Help: "Composer attempts against the backend, by outcome",
	}, []string{"outcome"})
	GenerationFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generation_fallbacks_total",
		Help: "Posts produced by the deterministic fallback path",
	})
	GenerationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_seconds",
		Help:    "End-to-end duration of generate-and-persist",
		Buckets: prometheus.DefBuckets,
	})
	NotificationErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_errors_total",
		Help: "Reviewer notifications that could not be delivered",
	})
	ApprovalTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_transitions_total",
		Help: "Approve/reject transitions applied to posts",
	}, []string{"to"})
)

// MustRegister registers all collectors with the given registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		GenerationRequests,
		GenerationAttempts,
		GenerationFallbacks,
		GenerationDuration,
		NotificationErrors,
		ApprovalTransitions,
	)
}
