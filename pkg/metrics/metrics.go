// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ValidationsTotal tracks passcode validation outcomes.
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passcode_validations_total",
			Help: "Passcode validation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// LockoutsTotal tracks lockouts imposed by the validator.
	LockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "passcode_lockouts_total",
			Help: "Total lockouts imposed after repeated failures",
		},
	)

	// LockRequestsTotal tracks lock requests by source.
	LockRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lock_requests_total",
			Help: "Lock requests by source (motion, lifecycle, manual)",
		},
		[]string{"source"},
	)

	// PanicTriggersTotal tracks panic gesture recognitions by matcher.
	PanicTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panic_triggers_total",
			Help: "Panic gesture recognitions by matcher (press, shake)",
		},
		[]string{"matcher"},
	)

	// MessagesWipedTotal tracks securely erased messages.
	MessagesWipedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_wiped_total",
			Help: "Messages overwritten and removed, by scope (flavor, all)",
		},
		[]string{"scope"},
	)

	// DecoyModeActive reports whether decoy routing is currently on.
	DecoyModeActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "decoy_mode_active",
			Help: "1 when decoy routing is active, 0 otherwise",
		},
	)

	// TelemetrySamplesTotal tracks consumed telemetry events by kind.
	TelemetrySamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_samples_total",
			Help: "Telemetry events consumed from NATS, by kind",
		},
		[]string{"kind"},
	)

	// MessagesTotal tracks messages appended, by flavor and destination.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Messages appended, by flavor and destination collection",
		},
		[]string{"flavor", "destination"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// SetDecoyMode records the current decoy routing state.
func SetDecoyMode(active bool) {
	if active {
		DecoyModeActive.Set(1)
	} else {
		DecoyModeActive.Set(0)
	}
}
