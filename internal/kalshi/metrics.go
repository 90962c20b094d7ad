package kalshi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks venue API requests by operation and outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshi_bot_api_requests_total",
		Help: "Total number of Kalshi API requests",
	}, []string{"op", "status"})

	// RequestDuration tracks venue API request latency by operation.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kalshi_bot_api_request_duration_seconds",
		Help:    "Kalshi API request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// RetriesTotal tracks rate-limit retries by operation.
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshi_bot_api_retries_total",
		Help: "Total number of rate-limited API retries",
	}, []string{"op"})

	// RateLimitWaits tracks how often the client had to wait for a slot.
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_bot_rate_limit_waits_total",
		Help: "Total number of requests delayed by the local rate limiter",
	})
)
