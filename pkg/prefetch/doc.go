// Package prefetch warms the response cache by fetching a set of pages in
// parallel before they are requested.
//
// Example usage:
//
//	warmer := prefetch.NewWarmer(fetcher, prefetch.DefaultConfig())
//	report := warmer.Warm(ctx, []prefetch.Target{{Path: "/"}, {Path: "/about"}})
//
// The warmer:
//   - Spawns a worker pool (default 4 workers)
//   - Fetches each target once through the revalidating fetcher
//   - Bounds every fetch with a per-target timeout
//   - Collects a per-target outcome; failures never abort the remaining targets
package prefetch
