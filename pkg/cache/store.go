package cache

import (
	"bytes"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetOptions carries the optional metadata stored with an entry.
type SetOptions struct {
	ETag         string
	LastModified string
	Tags         []string
	Params       Params
}

// Stats summarizes the store contents.
type Stats struct {
	TotalEntries int    `json:"total_entries"`
	TotalSize    int    `json:"total_size"`
	OldestEntry  *Entry `json:"oldest_entry,omitempty"`
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithClock replaces time.Now as the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for eviction and prune events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

type item struct {
	entry *Entry
	seq   uint64
}

// Store is an in-memory response store keyed by (path, params).
//
// Entries expire lazily on read once older than MaxAge, are evicted oldest
// first (by insertion time, not access) when the count exceeds MaxEntries, and
// are swept periodically when AutoPrune is enabled. Entries returned by the
// store share their Content with the stored copy and must be treated as
// read-only.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*item
	seq     uint64

	config Config
	now    func() time.Time
	logger zerolog.Logger
	pruner *pruner
}

// New creates a store. Zero limits in cfg resolve to their defaults; negative
// limits are rejected. The background prune task starts when cfg.AutoPrune is
// set and must be released with StopAutoPrune (or Close).
func New(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		entries: make(map[string]*item),
		config:  cfg.withDefaults(),
		now:     time.Now,
		logger:  log.With().Str("component", "response-store").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.config.AutoPrune {
		s.pruner = startPruner(s.config.PruneInterval, s.Prune)
	}

	return s, nil
}

// Config returns the resolved store configuration.
func (s *Store) Config() Config {
	return s.config
}

// Set stores content under (path, opts.Params), replacing any previous entry,
// then evicts the oldest entries until the store is within MaxEntries.
func (s *Store) Set(path string, content []byte, opts SetOptions) *Entry {
	entry := &Entry{
		Content:      bytes.Clone(content),
		CreatedAt:    s.now(),
		ETag:         opts.ETag,
		LastModified: opts.LastModified,
		Tags:         uniqueTags(opts.Tags),
		Size:         len(content),
	}
	if entry.Content == nil {
		entry.Content = []byte{}
	}

	key := Key(path, opts.Params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[key]; ok {
		s.untrack(prev.entry)
	}
	s.seq++
	s.entries[key] = &item{entry: entry, seq: s.seq}
	CacheEntries.Inc()
	CacheSize.Add(float64(entry.Size))

	s.enforceMaxEntries()

	out := *entry
	return &out
}

// Get returns the entry stored under (path, params). An entry older than
// MaxAge is deleted and reported as absent.
func (s *Store) Get(path string, params Params) (*Entry, bool) {
	key := Key(path, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.entries[key]
	if !ok {
		CacheMisses.Inc()
		return nil, false
	}

	if it.entry.IsExpired(s.now(), s.config.MaxAge) {
		s.remove(key, it, reasonExpired)
		CacheMisses.Inc()
		return nil, false
	}

	CacheHits.Inc()
	out := *it.entry
	return &out, true
}

// IsValid reports whether Get would return an entry. It has the same side effect.
func (s *Store) IsValid(path string, params Params) bool {
	_, ok := s.Get(path, params)
	return ok
}

// Clear removes the entry stored under (path, params), if any.
func (s *Store) Clear(path string, params Params) {
	key := Key(path, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if it, ok := s.entries[key]; ok {
		s.remove(key, it, reasonCleared)
	}
}

// ClearByTag removes every entry carrying tag and returns how many were removed.
func (s *Store) ClearByTag(tag string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, it := range s.entries {
		if it.entry.HasTag(tag) {
			s.remove(key, it, reasonCleared)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug().Str("tag", tag).Int("removed", removed).Msg("Cleared entries by tag")
	}
	return removed
}

// ClearAll empties the store.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, it := range s.entries {
		s.remove(key, it, reasonCleared)
	}
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns entry count, total content size and the oldest entry.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalEntries: len(s.entries)}
	var oldest *item
	for _, it := range s.entries {
		stats.TotalSize += it.entry.Size
		if oldest == nil || older(it, oldest) {
			oldest = it
		}
	}
	if oldest != nil {
		e := *oldest.entry
		stats.OldestEntry = &e
	}
	return stats
}

// Prune removes every expired entry and returns how many were removed.
// The background prune task calls it every PruneInterval.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, it := range s.entries {
		if it.entry.IsExpired(now, s.config.MaxAge) {
			s.remove(key, it, reasonPruned)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug().
			Int("removed", removed).
			Int("remaining", len(s.entries)).
			Msg("Pruned expired entries")
	}
	return removed
}

// StopAutoPrune cancels the background prune task and waits for it to exit.
// It is safe to call more than once and on stores without auto-prune.
func (s *Store) StopAutoPrune() {
	if s.pruner != nil {
		s.pruner.stop()
	}
}

// Close releases the store's background resources.
func (s *Store) Close() error {
	s.StopAutoPrune()
	return nil
}

// enforceMaxEntries removes the oldest entry, one at a time, until the store
// is within its bound. Callers must hold the write lock.
func (s *Store) enforceMaxEntries() {
	for len(s.entries) > s.config.MaxEntries {
		var (
			oldestKey string
			oldest    *item
		)
		for key, it := range s.entries {
			if oldest == nil || older(it, oldest) {
				oldestKey, oldest = key, it
			}
		}

		s.remove(oldestKey, oldest, reasonCapacity)
		s.logger.Debug().
			Str("key", oldestKey).
			Time("created_at", oldest.entry.CreatedAt).
			Msg("Evicted oldest entry")
	}
}

// remove deletes key and updates metrics. Callers must hold the write lock.
func (s *Store) remove(key string, it *item, reason string) {
	delete(s.entries, key)
	s.untrack(it.entry)
	CacheEvictions.WithLabelValues(reason).Inc()
}

func (s *Store) untrack(e *Entry) {
	CacheEntries.Dec()
	CacheSize.Sub(float64(e.Size))
}

// older orders items by CreatedAt, breaking ties by insertion sequence.
func older(a, b *item) bool {
	if a.entry.CreatedAt.Equal(b.entry.CreatedAt) {
		return a.seq < b.seq
	}
	return a.entry.CreatedAt.Before(b.entry.CreatedAt)
}
