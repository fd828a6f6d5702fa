// Package metrics holds the Prometheus instrumentation for the
// moderation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	EventsAppended   *prometheus.CounterVec
	EvasionFlags     prometheus.Counter
	RejectedCommands *prometheus.CounterVec
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_events_appended_total",
			Help: "Moderation events appended to the audit log, by kind",
		}, []string{"kind"}),
		EvasionFlags: factory.NewCounter(prometheus.CounterOpts{
			Name: "warden_evasion_flags_total",
			Help: "System-generated evasion flags recorded",
		}),
		RejectedCommands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_rejected_commands_total",
			Help: "Administrative commands rejected at the command boundary, by reason",
		}, []string{"reason"}),
	}
}
