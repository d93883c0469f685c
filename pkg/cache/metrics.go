package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Eviction reasons used as metric labels.
const (
	reasonCapacity = "capacity"
	reasonExpired  = "expired"
	reasonPruned   = "pruned"
	reasonCleared  = "cleared"
)

var (
	// CacheHits tracks lookups that returned a valid entry
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagecache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	// CacheMisses tracks lookups that found nothing or an expired entry
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagecache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// CacheEvictions tracks removed entries by reason
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagecache_evictions_total",
			Help: "Total number of entries removed from the response cache",
		},
		[]string{"reason"}, // "capacity", "expired", "pruned", "cleared"
	)

	// CacheEntries tracks the number of stored entries
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagecache_entries",
			Help: "Current number of entries in the response cache",
		},
	)

	// CacheSize tracks the stored content size in bytes
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagecache_size_bytes",
			Help: "Current size of cached content in bytes",
		},
	)
)
