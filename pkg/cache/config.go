package cache

import (
	"errors"
	"fmt"
	"time"
)

// Default store limits.
const (
	DefaultMaxEntries    = 100
	DefaultMaxAge        = 24 * time.Hour
	DefaultPruneInterval = time.Hour
)

// ErrInvalidConfig indicates a store configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid cache config")

// Config holds the store configuration. It is fixed for the lifetime of a Store.
type Config struct {
	// MaxEntries is the maximum number of entries kept before the oldest are evicted
	MaxEntries int

	// MaxAge is how long an entry stays valid after insertion
	MaxAge time.Duration

	// AutoPrune enables the background sweep of expired entries
	AutoPrune bool

	// PruneInterval is how often the background sweep runs
	PruneInterval time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries:    DefaultMaxEntries,
		MaxAge:        DefaultMaxAge,
		AutoPrune:     true,
		PruneInterval: DefaultPruneInterval,
	}
}

// Validate rejects negative limits.
func (c Config) Validate() error {
	if c.MaxEntries < 0 {
		return fmt.Errorf("%w: max entries must be >= 0 (got %d)", ErrInvalidConfig, c.MaxEntries)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("%w: max age must be >= 0 (got %s)", ErrInvalidConfig, c.MaxAge)
	}
	if c.PruneInterval < 0 {
		return fmt.Errorf("%w: prune interval must be >= 0 (got %s)", ErrInvalidConfig, c.PruneInterval)
	}
	return nil
}

// withDefaults fills zero limits with their defaults. AutoPrune is taken as given.
func (c Config) withDefaults() Config {
	if c.MaxEntries == 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.MaxAge == 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.PruneInterval == 0 {
		c.PruneInterval = DefaultPruneInterval
	}
	return c
}
