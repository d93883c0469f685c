// Package config loads the page cache service configuration from a YAML file
// with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/Sternrassler/pagecache/pkg/cache"
	"github.com/Sternrassler/pagecache/pkg/client"
	"github.com/Sternrassler/pagecache/pkg/logging"
	"github.com/Sternrassler/pagecache/pkg/prefetch"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	Listen         string        `yaml:"listen" env:"LISTEN"`
	OriginURL      string        `yaml:"origin_url" env:"ORIGIN_URL"`
	UserAgent      string        `yaml:"user_agent" env:"USER_AGENT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	Cache          CacheConfig   `yaml:"cache" envPrefix:"CACHE_"`
	Log            LogConfig     `yaml:"log" envPrefix:"LOG_"`
	Warm           WarmConfig    `yaml:"warm" envPrefix:"WARM_"`
}

// CacheConfig controls the response store.
type CacheConfig struct {
	MaxEntries    int           `yaml:"max_entries" env:"MAX_ENTRIES"`
	MaxAge        time.Duration `yaml:"max_age" env:"MAX_AGE"`
	AutoPrune     bool          `yaml:"auto_prune" env:"AUTO_PRUNE"`
	PruneInterval time.Duration `yaml:"prune_interval" env:"PRUNE_INTERVAL"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Pretty bool   `yaml:"pretty" env:"PRETTY"`
}

// WarmConfig lists pages fetched at startup.
type WarmConfig struct {
	Paths       []string      `yaml:"paths" env:"PATHS" envSeparator:","`
	Concurrency int           `yaml:"concurrency" env:"CONCURRENCY"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	storeDefaults := cache.DefaultConfig()
	warmDefaults := prefetch.DefaultConfig()
	transportDefaults := client.DefaultTransportConfig("")

	return &Config{
		Listen:         ":8080",
		OriginURL:      "http://localhost:3000",
		UserAgent:      transportDefaults.UserAgent,
		RequestTimeout: transportDefaults.Timeout,
		Cache: CacheConfig{
			MaxEntries:    storeDefaults.MaxEntries,
			MaxAge:        storeDefaults.MaxAge,
			AutoPrune:     storeDefaults.AutoPrune,
			PruneInterval: storeDefaults.PruneInterval,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
		Warm: WarmConfig{
			Concurrency: warmDefaults.MaxConcurrency,
			Timeout:     warmDefaults.Timeout,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty), then applies
// PAGECACHE_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "PAGECACHE_"}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}

	u, err := url.Parse(c.OriginURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("origin_url must be an absolute http(s) url (got %q)", c.OriginURL))
	}

	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be >= 0 (got %s)", c.RequestTimeout))
	}

	if err := c.StoreConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	if c.Warm.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("warm.concurrency must be >= 0 (got %d)", c.Warm.Concurrency))
	}

	return errors.Join(errs...)
}

// StoreConfig converts the cache section into a store configuration.
func (c *Config) StoreConfig() cache.Config {
	return cache.Config{
		MaxEntries:    c.Cache.MaxEntries,
		MaxAge:        c.Cache.MaxAge,
		AutoPrune:     c.Cache.AutoPrune,
		PruneInterval: c.Cache.PruneInterval,
	}
}

// TransportConfig converts the origin settings into a transport configuration.
func (c *Config) TransportConfig() client.TransportConfig {
	return client.TransportConfig{
		BaseURL:   c.OriginURL,
		UserAgent: c.UserAgent,
		Timeout:   c.RequestTimeout,
	}
}

// LoggingConfig converts the log section into a logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.Log.Pretty
	return cfg
}

// WarmerConfig converts the warm section into a warmer configuration.
func (c *Config) WarmerConfig() prefetch.Config {
	return prefetch.Config{
		MaxConcurrency: c.Warm.Concurrency,
		Timeout:        c.Warm.Timeout,
	}
}
