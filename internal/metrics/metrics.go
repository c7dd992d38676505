package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service counters. A single instance is wired through the
// engine; tests construct their own against a private registry.
type Metrics struct {
	PaymentConfirmations   *prometheus.CounterVec
	DuplicateConfirmations prometheus.Counter
	ReconciliationNeeded   *prometheus.CounterVec
	CheckoutsInitiated     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PaymentConfirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "payment_confirmations_total",
			Help:      "Payment confirmation attempts by outcome.",
		}, []string{"outcome"}),
		DuplicateConfirmations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "duplicate_confirmations_total",
			Help:      "Confirmations short-circuited by the session idempotency check.",
		}),
		ReconciliationNeeded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "reconciliation_needed_total",
			Help:      "Post-payment side effects that failed after the payment was recorded.",
		}, []string{"step"}),
		CheckoutsInitiated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "checkouts_initiated_total",
			Help:      "Orders created from carts.",
		}),
	}
}

// Default registers against the global Prometheus registry.
func Default() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
