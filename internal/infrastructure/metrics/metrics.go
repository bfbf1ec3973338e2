// Package metrics provides Prometheus metrics for the whatsapp-api service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// ActiveSessions tracks the number of registered sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "active_sessions",
			Help:      "Number of currently registered WhatsApp sessions",
		},
	)

	// SessionsByState tracks registered sessions per lifecycle state.
	SessionsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "sessions_by_state",
			Help:      "Number of registered sessions per lifecycle state",
		},
		[]string{"state"},
	)

	// SessionsCreated tracks the total number of sessions created.
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "sessions_created_total",
			Help:      "Total number of sessions created",
		},
	)

	// SessionsRemoved tracks the total number of sessions removed.
	SessionsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "sessions_removed_total",
			Help:      "Total number of sessions removed",
		},
	)

	// LifecycleEvents counts lifecycle events per kind.
	LifecycleEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "lifecycle_events_total",
			Help:      "Total number of session lifecycle events",
		},
		[]string{"event"},
	)

	// RestoreOutcomes counts restore attempts per outcome.
	RestoreOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "restore_outcomes_total",
			Help:      "Total number of session restore outcomes",
		},
		[]string{"outcome"},
	)

	// RestoreDuration tracks full restore runs.
	RestoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "restore_duration_seconds",
			Help:      "Duration of a full session restore run",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	// MessagesSent counts outbound messages per status.
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "messages_sent_total",
			Help:      "Total number of outbound messages",
		},
		[]string{"status"},
	)

	// ConnectivityProbes counts monitor probes per result.
	ConnectivityProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "connectivity_probes_total",
			Help:      "Total number of session connectivity probes",
		},
		[]string{"result"},
	)

	// SnapshotSaves counts credential archive uploads per status.
	SnapshotSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "snapshot_saves_total",
			Help:      "Total number of credential snapshot uploads",
		},
		[]string{"status"},
	)

	// S3OperationsTotal counts remote store operations.
	S3OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "s3_operations_total",
			Help:      "Total S3 operations",
		},
		[]string{"operation", "status"},
	)

	// S3Duration tracks remote store latency.
	S3Duration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "whatsapp_api",
			Name:      "s3_operation_duration_seconds",
			Help:      "S3 operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordSessionCreated increments session creation metrics.
func RecordSessionCreated() {
	SessionsCreated.Inc()
	ActiveSessions.Inc()
}

// RecordSessionRemoved increments session removal metrics.
func RecordSessionRemoved() {
	SessionsRemoved.Inc()
	ActiveSessions.Dec()
}

// RecordLifecycleEvent counts a lifecycle event.
func RecordLifecycleEvent(event string) {
	LifecycleEvents.WithLabelValues(event).Inc()
}

// RecordRestoreOutcome counts a restore outcome: restored, failed or pruned.
func RecordRestoreOutcome(outcome string) {
	RestoreOutcomes.WithLabelValues(outcome).Inc()
}

// RecordMessageSent counts an outbound message.
func RecordMessageSent(status string) {
	MessagesSent.WithLabelValues(status).Inc()
}

// RecordProbe counts a connectivity probe.
func RecordProbe(connected bool) {
	result := "connected"
	if !connected {
		result = "disconnected"
	}
	ConnectivityProbes.WithLabelValues(result).Inc()
}

// RecordSnapshotSave counts a credential snapshot upload: saved, failed or skipped.
func RecordSnapshotSave(status string) {
	SnapshotSaves.WithLabelValues(status).Inc()
}

// SetSessionStates replaces the per-state gauge values.
func SetSessionStates(counts map[string]int) {
	SessionsByState.Reset()
	for state, count := range counts {
		SessionsByState.WithLabelValues(state).Set(float64(count))
	}
}

// RecordS3Operation records an S3 operation
func RecordS3Operation(operation, status string, durationSec float64) {
	S3OperationsTotal.WithLabelValues(operation, status).Inc()
	S3Duration.WithLabelValues(operation).Observe(durationSec)
}
