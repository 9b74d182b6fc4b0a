package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdtd_cache_hits_total",
			Help: "Total number of BDTD page cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bdtd_cache_misses_total",
			Help: "Total number of BDTD page cache misses",
		},
	)

	// CacheSize tracks cache size in bytes by layer. Entries evicted by
	// Redis-side TTL are not observed, so the value is an upper bound.
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bdtd_cache_size_bytes",
			Help: "Approximate size of the BDTD page cache in bytes",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bdtd_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
