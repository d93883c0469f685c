package prefetch

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/pagecache/pkg/cache"
	"github.com/Sternrassler/pagecache/pkg/client"
	"github.com/rs/zerolog/log"
)

// Config holds warmer configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel fetches
	MaxConcurrency int
	// Timeout per target fetch
	Timeout time.Duration
}

// DefaultConfig returns the default warmer configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// PageFetcher is the single-page fetch the warmer drives.
type PageFetcher interface {
	Fetch(ctx context.Context, path string, opts client.FetchOptions) (*client.Result, error)
}

// Target is a page to warm.
type Target struct {
	Path   string
	Params cache.Params
	Tags   []string
}

// Outcome is the result of warming a single target.
type Outcome struct {
	Target    Target
	Status    int
	FromCache bool
	Error     error
}

// Report summarizes a warm run.
type Report struct {
	Outcomes  []Outcome
	Fetched   int
	FromCache int
	Failed    int
	Duration  time.Duration
}

// Warmer fetches targets in parallel through a PageFetcher.
type Warmer struct {
	fetcher PageFetcher
	config  Config
}

// NewWarmer creates a new warmer. Non-positive settings fall back to defaults.
func NewWarmer(fetcher PageFetcher, config Config) *Warmer {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &Warmer{
		fetcher: fetcher,
		config:  config,
	}
}

// Paths turns plain paths into targets.
func Paths(paths ...string) []Target {
	targets := make([]Target, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, Target{Path: p})
	}
	return targets
}

// Warm fetches every target and reports the per-target outcome in input order.
// Targets not yet started when ctx is cancelled are reported with ctx.Err().
func (w *Warmer) Warm(ctx context.Context, targets []Target) Report {
	start := time.Now()
	outcomes := make([]Outcome, len(targets))
	for i, target := range targets {
		outcomes[i] = Outcome{Target: target, Error: context.Canceled}
	}

	queue := make(chan int, len(targets))
	for i := range targets {
		queue <- i
	}
	close(queue)

	workers := w.config.MaxConcurrency
	if workers > len(targets) {
		workers = len(targets)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go w.worker(ctx, i, queue, outcomes, &wg)
	}
	wg.Wait()

	report := Report{Outcomes: outcomes, Duration: time.Since(start)}
	for i := range outcomes {
		o := &outcomes[i]
		if o.Error == context.Canceled && ctx.Err() != nil {
			o.Error = ctx.Err()
		}
		switch {
		case o.Error != nil:
			report.Failed++
		case o.FromCache:
			report.FromCache++
		default:
			report.Fetched++
		}
	}

	log.Info().
		Int("targets", len(targets)).
		Int("fetched", report.Fetched).
		Int("from_cache", report.FromCache).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("Cache warm-up complete")

	return report
}

// worker processes target indexes from the queue. Each index is written by
// exactly one worker, so outcomes needs no lock.
func (w *Warmer) worker(ctx context.Context, workerID int, queue <-chan int, outcomes []Outcome, wg *sync.WaitGroup) {
	defer wg.Done()
	processed := 0

	for i := range queue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("targets_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		target := outcomes[i].Target
		fetchCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		result, err := w.fetcher.Fetch(fetchCtx, target.Path, client.FetchOptions{
			Params: target.Params,
			Tags:   target.Tags,
		})
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Str("path", target.Path).
				Msg("Warm-up fetch failed")
			outcomes[i].Error = err
		} else {
			outcomes[i].Error = nil
			outcomes[i].Status = result.Status
			outcomes[i].FromCache = result.FromCache
		}
		processed++
	}

	if processed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("targets_processed", processed).
			Msg("Worker completed")
	}
}
