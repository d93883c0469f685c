// Package client provides the revalidating page fetcher: conditional GETs
// against an origin, backed by the response store, with stale fallback when
// the origin cannot be reached.
package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/pagecache/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FetchOptions carries the optional inputs of a fetch.
type FetchOptions struct {
	// Params identify the resource together with the path and are sent as the query string
	Params cache.Params

	// Header is sent with the request; conditional headers are added on top
	Header http.Header

	// Tags are stored with a freshly fetched entry
	Tags []string
}

// Result is the outcome of a successful fetch.
type Result struct {
	// Content is the response body, fresh or cached
	Content []byte `json:"content"`

	// FromCache is true when Content came from the store (304 or stale fallback)
	FromCache bool `json:"from_cache"`

	// Status is 304 for a revalidated entry, 200 for a stale fallback,
	// otherwise the origin status
	Status int `json:"status"`
}

// Fetcher performs cached, conditionally revalidated GET requests.
type Fetcher struct {
	store     *cache.Store
	transport Transport
	logger    zerolog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherLogger sets the logger used for fallback and revalidation events.
func WithFetcherLogger(logger zerolog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a fetcher over store and transport. The fetcher does not
// own the store; stopping its prune task remains the caller's job.
func NewFetcher(store *cache.Store, transport Transport, opts ...FetcherOption) *Fetcher {
	if store == nil {
		panic("store cannot be nil")
	}
	if transport == nil {
		panic("transport cannot be nil")
	}

	f := &Fetcher{
		store:     store,
		transport: transport,
		logger:    log.With().Str("component", "fetcher").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the resource at path, revalidating any cached copy.
//
// Exactly one request is sent. A 304 answer serves the cached content without
// touching the entry, so it keeps its original creation time. A 2xx answer
// replaces the entry. Transport failures and non-success statuses fall back to
// the cached content with status 200; without a cached entry they surface as
// *TransportError or *OriginError.
func (f *Fetcher) Fetch(ctx context.Context, path string, opts FetchOptions) (*Result, error) {
	start := time.Now()
	defer func() {
		fetchDuration.Observe(time.Since(start).Seconds())
	}()

	// Step 1: Check Cache
	cached, _ := f.store.Get(path, opts.Params)

	// Step 2: Build headers, conditional if we hold validators
	header := cache.ConditionalHeaders(opts.Header, cached)
	if cache.ShouldMakeConditionalRequest(cached) {
		conditionalRequestsTotal.Inc()
		f.logger.Debug().
			Str("path", path).
			Str("etag", cached.ETag).
			Str("last_modified", cached.LastModified).
			Msg("Making conditional request")
	}

	// Step 3: Single request through the transport
	target := requestTarget(path, opts.Params)
	resp, err := f.transport.Get(ctx, target, header)
	if err != nil {
		fetchErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return f.fallback(path, cached, &TransportError{URL: target, Err: err})
	}

	// Step 4: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cached != nil {
		fetchTotal.WithLabelValues(outcomeNotModified).Inc()
		f.logger.Debug().Str("path", path).Msg("304 Not Modified - using cache")
		return &Result{
			Content:   cached.Content,
			FromCache: true,
			Status:    http.StatusNotModified,
		}, nil
	}

	// Step 5: Refresh cache on success
	if isSuccess(resp.StatusCode) {
		f.store.Set(path, resp.Body, cache.ValidatorOptions(resp.Header, opts.Tags, opts.Params))
		fetchTotal.WithLabelValues(outcomeFresh).Inc()
		f.logger.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("size", len(resp.Body)).
			Msg("Cached response")
		return &Result{
			Content:   resp.Body,
			FromCache: false,
			Status:    resp.StatusCode,
		}, nil
	}

	// Step 6: Any other status is a failure
	class := classifyStatus(resp.StatusCode)
	fetchErrorsTotal.WithLabelValues(string(class)).Inc()
	return f.fallback(path, cached, &OriginError{
		URL:        target,
		StatusCode: resp.StatusCode,
		ErrorClass: class,
	})
}

// Store returns the underlying response store.
func (f *Fetcher) Store() *cache.Store {
	return f.store
}

// fallback serves cached content for a failed fetch, or returns cause.
func (f *Fetcher) fallback(path string, cached *cache.Entry, cause error) (*Result, error) {
	if cached == nil {
		fetchTotal.WithLabelValues(outcomeError).Inc()
		return nil, cause
	}

	fetchTotal.WithLabelValues(outcomeStaleFallback).Inc()
	f.logger.Warn().
		Err(cause).
		Str("path", path).
		Time("cached_at", cached.CreatedAt).
		Msg("Fetch failed, serving from cache")

	return &Result{
		Content:   cached.Content,
		FromCache: true,
		Status:    http.StatusOK,
	}, nil
}

// requestTarget appends params to path as a sorted query string.
func requestTarget(path string, params cache.Params) string {
	if len(params) == 0 {
		return path
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + cache.QueryValues(params).Encode()
}
