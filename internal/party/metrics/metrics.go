package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the party registry.
type Metrics struct {
	PartiesRegistered  prometheus.Counter
	PartiesRemoved     prometheus.Counter
	RoleLookupDuration prometheus.Histogram
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		PartiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_parties_registered_total",
			Help: "Total number of party registrations accepted",
		}),
		PartiesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_parties_removed_total",
			Help: "Total number of party registrations removed",
		}),
		RoleLookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ssitizens_role_lookup_duration_seconds",
			Help:    "Duration of effective role lookups (transfer critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRegistered records an accepted registration.
func (m *Metrics) IncrementRegistered() {
	m.PartiesRegistered.Inc()
}

// IncrementRemoved records a removed registration.
func (m *Metrics) IncrementRemoved() {
	m.PartiesRemoved.Inc()
}

// ObserveRoleLookup records the duration of an effective role lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRoleLookup(start time.Time) {
	m.RoleLookupDuration.Observe(time.Since(start).Seconds())
}
