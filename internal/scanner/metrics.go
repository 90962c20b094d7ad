package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketsScanned counts markets examined across all scans.
	MarketsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_bot_markets_scanned_total",
		Help: "Total number of markets examined by the scanner",
	})

	// OpportunitiesFound counts markets that passed every filter.
	OpportunitiesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_bot_opportunities_found_total",
		Help: "Total number of qualifying opportunities found",
	})
)
