package portfolio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CashBalance is the last observed cash balance in cents.
	CashBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kalshi_bot_portfolio_cash_cents",
		Help: "Current cash balance in cents",
	})

	// TotalValue is the last computed total portfolio value in cents.
	TotalValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kalshi_bot_portfolio_total_value_cents",
		Help: "Total portfolio value (cash plus positions) in cents",
	})
)
