// Package cache provides an in-memory HTTP response store.
//
// The store implements the caching half of the page fetcher with the following features:
//
// - Deterministic cache keys from path and parameters (order independent)
// - Age-bounded entries with lazy expiry on read
// - Count-bounded entries with oldest-first (insertion time) eviction
// - Tag-based bulk invalidation
// - Background pruning of expired entries with explicit teardown
// - ETag and Last-Modified validators for conditional requests
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create store
//	store, err := cache.New(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer store.StopAutoPrune()
//
//	// Store a response
//	store.Set("/pages/home", body, cache.SetOptions{
//		ETag:   `"v1"`,
//		Tags:   []string{"pages"},
//		Params: cache.Params{"lang": "en"},
//	})
//
//	// Get from cache
//	entry, ok := store.Get("/pages/home", cache.Params{"lang": "en"})
//	if !ok {
//		// Cache miss or expired - fetch from origin
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		header = cache.ConditionalHeaders(header, entry)
//		// Origin will return 304 if not modified
//	}
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - pagecache_hits_total - Cache hits
//   - pagecache_misses_total - Cache misses (including lazily expired entries)
//   - pagecache_evictions_total{reason} - Removed entries (capacity, expired, pruned, cleared)
//   - pagecache_entries - Current entry count
//   - pagecache_size_bytes - Current content size
//
// # Concurrency
//
// All operations are safe for concurrent use. A read-write mutex guards the
// entry map; Get takes the write lock because it may delete an expired entry.
package cache
