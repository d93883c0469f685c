// Package metrics exposes the Prometheus registry shared by the page cache.
// Metrics are defined next to the code that records them (pkg/cache,
// pkg/client) and registered via promauto; this package serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all page cache metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer backing Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		Registry,
		promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}),
	)
}

// Metrics Documentation
//
// Store Metrics (pkg/cache):
//   - pagecache_hits_total (Counter): Get calls served from a live entry
//   - pagecache_misses_total (Counter): Get calls with no live entry
//   - pagecache_evictions_total{reason} (Counter): Removed entries by reason
//     (capacity, expired, pruned, cleared)
//   - pagecache_entries (Gauge): Entries currently held
//   - pagecache_size_bytes (Gauge): Sum of cached content sizes
//
// Fetch Metrics (pkg/client):
//   - pagecache_fetch_total{outcome} (Counter): Fetches by outcome
//     (fresh, not_modified, stale_fallback, error)
//   - pagecache_fetch_errors_total{class} (Counter): Failed origin requests by
//     class (client, server, network, unexpected)
//   - pagecache_conditional_requests_total (Counter): Requests sent with validators
//   - pagecache_fetch_duration_seconds (Histogram): Fetch latency
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(pagecache_hits_total[5m])) /
//   (sum(rate(pagecache_hits_total[5m])) + sum(rate(pagecache_misses_total[5m])))
//
//   # Revalidation Rate
//   rate(pagecache_fetch_total{outcome="not_modified"}[5m]) /
//   rate(pagecache_conditional_requests_total[5m])
//
//   # Stale Serving
//   rate(pagecache_fetch_total{outcome="stale_fallback"}[5m])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(pagecache_fetch_duration_seconds_bucket[5m]))
