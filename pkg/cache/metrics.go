package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHitsTotal tracks market cache hits.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_bot_cache_hits_total",
		Help: "Total number of market cache hits",
	})

	// CacheMissesTotal tracks market cache misses.
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_bot_cache_misses_total",
		Help: "Total number of market cache misses",
	})

	// CacheSetsTotal tracks market cache writes.
	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_bot_cache_sets_total",
		Help: "Total number of market cache writes",
	})
)
