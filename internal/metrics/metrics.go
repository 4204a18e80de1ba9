// Package metrics holds the Prometheus instruments of the intake engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for command dispatch. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Commands dispatched by command kind and outcome ("ok", "noop", "error").
	Commands *prometheus.CounterVec

	// Events appended by event kind.
	Events *prometheus.CounterVec

	// Time from dequeue to append, by command kind.
	DispatchDuration *prometheus.HistogramVec

	// Case actors currently running.
	ActiveActors prometheus.Gauge
}

// New registers the intake metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caseintake_commands_total",
			Help: "Commands dispatched by kind and outcome",
		}, []string{"kind", "outcome"}),

		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "caseintake_events_total",
			Help: "Events appended to the case log by kind",
		}, []string{"kind"}),

		DispatchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseintake_dispatch_duration_seconds",
			Help:    "Duration of command handling including history load and append",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"kind"}),

		ActiveActors: f.NewGauge(prometheus.GaugeOpts{
			Name: "caseintake_active_actors",
			Help: "Case actors currently running",
		}),
	}
}

// IncrementCommand records a dispatched command.
func (m *Metrics) IncrementCommand(kind, outcome string) {
	if m != nil {
		m.Commands.WithLabelValues(kind, outcome).Inc()
	}
}

// AddEvents records appended events of one kind.
func (m *Metrics) AddEvents(kind string, n int) {
	if m != nil && n > 0 {
		m.Events.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveDispatch records the handling time of one command.
func (m *Metrics) ObserveDispatch(kind string, d time.Duration) {
	if m != nil {
		m.DispatchDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// ActorStarted increments the active actor gauge.
func (m *Metrics) ActorStarted() {
	if m != nil {
		m.ActiveActors.Inc()
	}
}

// ActorStopped decrements the active actor gauge.
func (m *Metrics) ActorStopped() {
	if m != nil {
		m.ActiveActors.Dec()
	}
}
