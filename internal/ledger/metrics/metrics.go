package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger pipeline.
type Metrics struct {
	TransfersApplied    prometheus.Counter
	Issuances           prometheus.Counter
	Redemptions         prometheus.Counter
	TransfersRejected   prometheus.Counter
	ControllerOverrides prometheus.Counter
	TransferDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		TransfersApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_transfers_applied_total",
			Help: "Total number of value movements applied",
		}),
		Issuances: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_issuances_total",
			Help: "Total number of mint operations",
		}),
		Redemptions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_redemptions_total",
			Help: "Total number of burn operations",
		}),
		TransfersRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_transfers_rejected_total",
			Help: "Total number of value movements rejected by policy or state checks",
		}),
		ControllerOverrides: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_controller_overrides_total",
			Help: "Total number of controller-channel forced movements",
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ssitizens_transfer_duration_seconds",
			Help:    "Duration of value-moving operations end to end",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementApplied records an applied value movement.
func (m *Metrics) IncrementApplied() { m.TransfersApplied.Inc() }

// IncrementIssued records a mint.
func (m *Metrics) IncrementIssued() { m.Issuances.Inc() }

// IncrementRedeemed records a burn.
func (m *Metrics) IncrementRedeemed() { m.Redemptions.Inc() }

// IncrementRejected records a rejected value movement.
func (m *Metrics) IncrementRejected() { m.TransfersRejected.Inc() }

// IncrementControllerOverride records a controller-channel movement.
func (m *Metrics) IncrementControllerOverride() { m.ControllerOverrides.Inc() }

// ObserveTransfer records the duration of a value-moving operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveTransfer(start time.Time) {
	m.TransferDuration.Observe(time.Since(start).Seconds())
}
