package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/pagecache/pkg/cache"
	"github.com/Sternrassler/pagecache/pkg/client"
	"github.com/Sternrassler/pagecache/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// X-Cache values reported by the pages route.
const (
	cacheHit         = "HIT"
	cacheMiss        = "MISS"
	cacheRevalidated = "REVALIDATED"
	cacheStale       = "STALE"
)

const requestIDHeader = "X-Request-ID"

// forwardedHeaders are copied from the client request to the origin.
var forwardedHeaders = []string{"Accept", "Accept-Language"}

type server struct {
	fetcher *client.Fetcher
	store   *cache.Store
	logger  zerolog.Logger
	ready   atomic.Bool
}

func newServer(fetcher *client.Fetcher, logger zerolog.Logger) *server {
	s := &server{
		fetcher: fetcher,
		store:   fetcher.Store(),
		logger:  logger,
	}
	s.ready.Store(true)
	return s
}

// SetReady toggles the /ready probe.
func (s *server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Router builds the HTTP routes.
func (s *server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(s.logger))
	r.Use(requestID)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/pages/*", s.handlePage)

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Delete("/", s.handleClearAll)
		r.Delete("/tags/{tag}", s.handleClearTag)
		r.Delete("/pages/*", s.handleClearPage)
		r.Post("/prune", s.handlePrune)
	})

	return r
}

// requestID propagates or assigns a request id and adds it to the request logger.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger := hlog.FromRequest(r).With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request handled")
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "Shutting down", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handlePage serves a page through the fetcher. Query parameters become
// request parameters; the first path segment and "pages" become tags.
// Cache-Control: only-if-cached answers from the store without contacting
// the origin, or 504 when nothing live is cached.
func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	path := "/" + chi.URLParam(r, "*")
	params := queryParams(r)

	if onlyIfCached(r) {
		entry, ok := s.store.Get(path, params)
		if !ok {
			http.Error(w, http.StatusText(http.StatusGatewayTimeout), http.StatusGatewayTimeout)
			return
		}
		writePage(w, cacheHit, entry.Content)
		return
	}

	header := make(http.Header)
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	result, err := s.fetcher.Fetch(r.Context(), path, client.FetchOptions{
		Params: params,
		Header: header,
		Tags:   pageTags(path),
	})
	if err != nil {
		s.writeFetchError(w, r, path, err)
		return
	}

	writePage(w, cacheStatus(result), result.Content)
}

func writePage(w http.ResponseWriter, xcache string, content []byte) {
	w.Header().Set("X-Cache", xcache)
	w.Header().Set("Content-Type", http.DetectContentType(content))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// cacheStatus reports how a fetched page was served.
func cacheStatus(result *client.Result) string {
	switch {
	case !result.FromCache:
		return cacheMiss
	case result.Status == http.StatusNotModified:
		return cacheRevalidated
	default:
		return cacheStale
	}
}

func onlyIfCached(r *http.Request) bool {
	for _, directive := range strings.Split(r.Header.Get("Cache-Control"), ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "only-if-cached") {
			return true
		}
	}
	return false
}

func (s *server) writeFetchError(w http.ResponseWriter, r *http.Request, path string, err error) {
	status := http.StatusBadGateway

	var originErr *client.OriginError
	if errors.As(err, &originErr) && originErr.Class() != client.ErrorClassUnexpected {
		status = originErr.StatusCode
	}

	hlog.FromRequest(r).Error().
		Err(err).
		Str("path", path).
		Int("status", status).
		Msg("Page unavailable")

	http.Error(w, http.StatusText(status), status)
}

type statsResponse struct {
	TotalEntries    int        `json:"total_entries"`
	TotalSize       int        `json:"total_size"`
	MaxEntries      int        `json:"max_entries"`
	MaxAge          string     `json:"max_age"`
	OldestCreatedAt *time.Time `json:"oldest_created_at,omitempty"`
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.store.Stats()
	cfg := s.store.Config()

	resp := statsResponse{
		TotalEntries: stats.TotalEntries,
		TotalSize:    stats.TotalSize,
		MaxEntries:   cfg.MaxEntries,
		MaxAge:       cfg.MaxAge.String(),
	}
	if stats.OldestEntry != nil {
		created := stats.OldestEntry.CreatedAt
		resp.OldestCreatedAt = &created
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	s.store.ClearAll()
	hlog.FromRequest(r).Info().Msg("Cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleClearTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	removed := s.store.ClearByTag(tag)
	hlog.FromRequest(r).Info().Str("tag", tag).Int("removed", removed).Msg("Cache tag cleared")
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *server) handleClearPage(w http.ResponseWriter, r *http.Request) {
	path := "/" + chi.URLParam(r, "*")
	s.store.Clear(path, queryParams(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handlePrune(w http.ResponseWriter, r *http.Request) {
	removed := s.store.Prune()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// queryParams converts the query string to request parameters. Repeated
// keys become lists.
func queryParams(r *http.Request) cache.Params {
	query := r.URL.Query()
	if len(query) == 0 {
		return nil
	}

	params := make(cache.Params, len(query))
	for key, values := range query {
		if len(values) == 1 {
			params[key] = values[0]
			continue
		}
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v
		}
		params[key] = list
	}
	return params
}

// pageTags tags every page with "pages" plus its first path segment.
func pageTags(path string) []string {
	tags := []string{"pages"}
	segment, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if segment != "" {
		tags = append(tags, segment)
	}
	return tags
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
