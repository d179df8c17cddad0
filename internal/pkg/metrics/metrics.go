package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CoreMetrics struct {
	OrdersCreated   prometheus.Counter
	OrdersModified  prometheus.Counter
	OrdersCancelled prometheus.Counter
	OrdersSettled   prometheus.Counter
	SettlementRuns  prometheus.Counter
	PurgedCustomers prometheus.Counter
	PurgeSkipped    prometheus.Counter
}

func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	m := &CoreMetrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "orders_created_total",
			Help:      "Total number of orders created.",
		}),
		OrdersModified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "orders_modified_total",
			Help:      "Total number of order modifications applied.",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "orders_cancelled_total",
			Help:      "Total number of orders cancelled.",
		}),
		OrdersSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "orders_settled_total",
			Help:      "Total number of orders flipped to fulfilled by settlement sweeps.",
		}),
		SettlementRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "settlement_runs_total",
			Help:      "Total number of settlement sweeps executed.",
		}),
		PurgedCustomers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "purged_customers_total",
			Help:      "Total number of customer rows permanently removed.",
		}),
		PurgeSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "commerce",
			Name:      "purge_skipped_total",
			Help:      "Total number of purge candidates skipped due to outstanding orders.",
		}),
	}

	reg.MustRegister(
		m.OrdersCreated, m.OrdersModified, m.OrdersCancelled,
		m.OrdersSettled, m.SettlementRuns,
		m.PurgedCustomers, m.PurgeSkipped,
	)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
