// Package telemetry exposes the controller's operational counters as
// Prometheus metrics and writes speed history to InfluxDB for offline
// analysis. Neither sink can affect arbitration: every write here is
// best-effort and never returns an error to the caller.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ironrail/throttle/internal/command"
	"github.com/ironrail/throttle/internal/hal"
	"github.com/ironrail/throttle/internal/throttle"
	"github.com/ironrail/throttle/internal/transition"
)

// Metrics holds the Prometheus collectors for command outcomes
// (RecordOutcome), the current speed (RecordSnapshot) and transition
// durations (RecordTransitionDuration). Each collector changes only
// when its Record method is called.
type Metrics struct {
	commandsAccepted *prometheus.CounterVec
	commandsRejected *prometheus.CounterVec
	estops           *prometheus.CounterVec
	currentSpeed     prometheus.Gauge
	transitionMs     prometheus.Histogram
}

// NewMetrics registers the controller's collectors against registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		commandsAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_commands_accepted_total",
			Help: "Commands admitted through the lockout and queue.",
		}, []string{"source"}),
		commandsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_commands_rejected_total",
			Help: "Commands rejected at admission or during transition arbitration.",
		}, []string{"reason"}),
		estops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_estops_total",
			Help: "Emergency stops applied, by declared source.",
		}, []string{"source"}),
		currentSpeed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "throttle_current_speed",
			Help: "Current motor speed in [0, 1].",
		}),
		transitionMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "throttle_transition_duration_ms",
			Help:    "Wall-clock duration of completed transitions.",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
}

// RecordOutcome updates the command counters for a single
// ApplyCommand result.
func (m *Metrics) RecordOutcome(cmd command.Command, source command.Source, out throttle.Outcome) {
	if command.IsEstop(cmd) {
		m.estops.WithLabelValues(source.String()).Inc()
	}

	switch {
	case out.FaultRejected:
		m.commandsRejected.WithLabelValues("fault_active").Inc()
	case out.Admission.Dropped:
		m.commandsRejected.WithLabelValues("queue_full").Inc()
	case out.Admission.Accepted && out.Transition.Kind == transition.ResultRejected:
		m.commandsRejected.WithLabelValues(out.Transition.Reason.String()).Inc()
	case out.Admission.Accepted, out.Admission.Queued:
		m.commandsAccepted.WithLabelValues(source.String()).Inc()
	}
}

// RecordSnapshot updates the current-speed gauge from a tick.
func (m *Metrics) RecordSnapshot(snap hal.Snapshot) {
	m.currentSpeed.Set(snap.Speed.Float64())
}

// RecordTransitionDuration records the wall-clock span of a completed
// transition.
func (m *Metrics) RecordTransitionDuration(ms float64) {
	m.transitionMs.Observe(ms)
}
