// ===== internal/metrics/metrics.go =====
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all the Prometheus metrics for the simulation engine
type Metrics struct {
	EventsTotal        prometheus.Counter
	LearnedTotal       prometheus.Counter
	AlertsTotal        prometheus.Counter
	BlockedMACsTotal   prometheus.Counter
	DroppedTotal       prometheus.Counter
	EventsInvalidTotal prometheus.Counter
}

// New creates a Metrics instance with all counters registered on reg.
// Production code passes prometheus.DefaultRegisterer; tests pass a
// private registry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arpsim_events_total",
			Help: "Total number of simulated ARP events processed",
		}),
		LearnedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arpsim_learned_total",
			Help: "Total number of IP to MAC bindings learned",
		}),
		AlertsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arpsim_alerts_total",
			Help: "Total number of spoof detections raised",
		}),
		BlockedMACsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arpsim_blocked_macs_total",
			Help: "Total number of MAC addresses auto-blocked",
		}),
		DroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arpsim_dropped_total",
			Help: "Total number of events dropped at ingress from blocked MACs",
		}),
		EventsInvalidTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "arpsim_events_invalid_total",
			Help: "Total number of malformed events rejected",
		}),
	}
}

// IncrementEvents increments the arpsim_events_total counter
func (m *Metrics) IncrementEvents() {
	m.EventsTotal.Inc()
}

// IncrementLearned increments the arpsim_learned_total counter
func (m *Metrics) IncrementLearned() {
	m.LearnedTotal.Inc()
}

// IncrementAlerts increments the arpsim_alerts_total counter
func (m *Metrics) IncrementAlerts() {
	m.AlertsTotal.Inc()
}

// IncrementBlockedMACs increments the arpsim_blocked_macs_total counter
func (m *Metrics) IncrementBlockedMACs() {
	m.BlockedMACsTotal.Inc()
}

// IncrementDropped increments the arpsim_dropped_total counter
func (m *Metrics) IncrementDropped() {
	m.DroppedTotal.Inc()
}

// IncrementEventsInvalid increments the arpsim_events_invalid_total counter
func (m *Metrics) IncrementEventsInvalid() {
	m.EventsInvalidTotal.Inc()
}
