package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	AuthzDenialCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_denials_total",
			Help: "Total number of authorization denials",
		},
		[]string{"role", "action"},
	)

	TaskTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_transitions_total",
			Help: "Total number of task status transitions applied",
		},
		[]string{"from", "to", "role"},
	)

	AuditEntryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit log entries written",
		},
		[]string{"action", "entity_type"},
	)

	OutboxPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_total",
			Help: "Total number of outbox event publish attempts",
		},
		[]string{"routing_key", "status"}, // status: success, failed, rejected
	)
)

// RecordHTTPRequestDuration records one request's latency.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementAuthzDenial counts a policy denial.
func IncrementAuthzDenial(role, action string) {
	AuthzDenialCount.WithLabelValues(role, action).Inc()
}

// IncrementTaskTransition counts an applied status transition.
func IncrementTaskTransition(from, to, role string) {
	TaskTransitionCount.WithLabelValues(from, to, role).Inc()
}

// IncrementAuditEntry counts a written audit entry.
func IncrementAuditEntry(action, entityType string) {
	AuditEntryCount.WithLabelValues(action, entityType).Inc()
}

// IncrementOutboxPublish counts one publish attempt outcome.
func IncrementOutboxPublish(routingKey, status string) {
	OutboxPublishCount.WithLabelValues(routingKey, status).Inc()
}
