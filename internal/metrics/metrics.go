package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters are registered on the default registry and exposed via /metrics.
var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "techstore_orders_created_total",
		Help: "Number of orders successfully created.",
	})

	PaymentCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "techstore_payment_callbacks_total",
		Help: "Inbound payment callbacks by provider, channel and outcome.",
	}, []string{"provider", "channel", "outcome"})
)
