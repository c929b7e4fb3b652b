package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the operator-facing outcomes the webhook-driven flows cannot
// surface to end users. Label "result" is one of ok/noop/error.
type Metrics struct {
	Settlements   *prometheus.CounterVec
	Reassignments *prometheus.CounterVec
	SyncedEvents  *prometheus.CounterVec
	SyncFailures  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schedcore_settlements_total",
			Help: "Payment settlement attempts by result.",
		}, []string{"result"}),
		Reassignments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schedcore_reassignments_total",
			Help: "Booking reassignment attempts by result.",
		}, []string{"result"}),
		SyncedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schedcore_calendar_sync_events_total",
			Help: "External calendar events processed by result.",
		}, []string{"result"}),
		SyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "schedcore_calendar_sync_calendar_failures_total",
			Help: "Selected calendars whose sync pass failed entirely.",
		}),
	}
}

func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
