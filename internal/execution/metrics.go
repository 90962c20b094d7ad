package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersPlaced counts live orders by kind (entry/exit).
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshi_bot_orders_placed_total",
		Help: "Total number of orders that went live",
	}, []string{"kind"})

	// OrdersFailed counts rejected or failed orders by kind.
	OrdersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshi_bot_orders_failed_total",
		Help: "Total number of orders rejected or failed",
	}, []string{"kind"})

	// OrdersCancelled counts stale-order cancellations.
	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_bot_orders_cancelled_total",
		Help: "Total number of stale orders cancelled",
	})

	// ExitsExecuted counts exit orders by reason.
	ExitsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshi_bot_exits_executed_total",
		Help: "Total number of exit orders placed, by reason",
	}, []string{"reason"})

	// OpenPositions is the number of confirmed open positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kalshi_bot_open_positions",
		Help: "Number of confirmed open positions",
	})
)
