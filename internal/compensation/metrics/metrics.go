package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compensation pool.
type Metrics struct {
	Deposits        prometheus.Counter
	Payments        prometheus.Counter
	PaymentsSkipped prometheus.Counter
}

// New creates a new Metrics instance with all pool metrics registered.
func New() *Metrics {
	return &Metrics{
		Deposits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_pool_deposits_total",
			Help: "Total number of deposits into the compensation pool",
		}),
		Payments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_pool_payments_total",
			Help: "Total number of sponsorship payouts made",
		}),
		PaymentsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ssitizens_pool_payments_skipped_total",
			Help: "Total number of sponsorship requests skipped (funded wallet, contract account or empty pool)",
		}),
	}
}

// IncrementDeposits records a deposit.
func (m *Metrics) IncrementDeposits() { m.Deposits.Inc() }

// IncrementPayments records a payout.
func (m *Metrics) IncrementPayments() { m.Payments.Inc() }

// IncrementPaymentsSkipped records a skipped sponsorship request.
func (m *Metrics) IncrementPaymentsSkipped() { m.PaymentsSkipped.Inc() }
