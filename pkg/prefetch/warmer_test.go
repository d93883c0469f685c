package prefetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/pagecache/pkg/client"
)

type mockFetcher struct {
	mu        sync.Mutex
	seen      map[string]client.FetchOptions
	inFlight  int32
	maxFlight int32
	delay     time.Duration
	failures  map[string]error
	cached    map[string]bool
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		seen:     make(map[string]client.FetchOptions),
		failures: make(map[string]error),
		cached:   make(map[string]bool),
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, path string, opts client.FetchOptions) (*client.Result, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		max := atomic.LoadInt32(&m.maxFlight)
		if n <= max || atomic.CompareAndSwapInt32(&m.maxFlight, max, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[path] = opts

	if err, ok := m.failures[path]; ok {
		return nil, err
	}
	if m.cached[path] {
		return &client.Result{Content: []byte(path), FromCache: true, Status: http.StatusNotModified}, nil
	}
	return &client.Result{Content: []byte(path), Status: http.StatusOK}, nil
}

func TestNewWarmer_Defaults(t *testing.T) {
	w := NewWarmer(newMockFetcher(), Config{})
	if w.config != DefaultConfig() {
		t.Errorf("config = %+v, want %+v", w.config, DefaultConfig())
	}
}

func TestWarm_AllTargets(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.cached["/about"] = true
	fetcher.failures["/broken"] = &client.OriginError{URL: "/broken", StatusCode: 500, ErrorClass: client.ErrorClassServer}

	targets := []Target{
		{Path: "/", Tags: []string{"pages"}},
		{Path: "/about"},
		{Path: "/broken"},
		{Path: "/list", Params: map[string]any{"page": 1}},
	}

	report := NewWarmer(fetcher, DefaultConfig()).Warm(context.Background(), targets)

	if len(report.Outcomes) != 4 {
		t.Fatalf("Outcomes = %d, want 4", len(report.Outcomes))
	}
	if report.Fetched != 2 || report.FromCache != 1 || report.Failed != 1 {
		t.Errorf("report = fetched %d, from cache %d, failed %d; want 2, 1, 1",
			report.Fetched, report.FromCache, report.Failed)
	}

	// Outcomes keep input order
	for i, target := range targets {
		if report.Outcomes[i].Target.Path != target.Path {
			t.Errorf("Outcomes[%d] = %s, want %s", i, report.Outcomes[i].Target.Path, target.Path)
		}
	}
	if report.Outcomes[1].Status != http.StatusNotModified {
		t.Errorf("Outcomes[1].Status = %d, want 304", report.Outcomes[1].Status)
	}
	if !errors.Is(report.Outcomes[2].Error, client.ErrOrigin) {
		t.Errorf("Outcomes[2].Error = %v, want origin error", report.Outcomes[2].Error)
	}

	if tags := fetcher.seen["/"].Tags; len(tags) != 1 || tags[0] != "pages" {
		t.Errorf("tags for / = %v, want [pages]", tags)
	}
	if page := fetcher.seen["/list"].Params["page"]; page != 1 {
		t.Errorf("page param = %v, want 1", page)
	}
}

func TestWarm_BoundedConcurrency(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.delay = 10 * time.Millisecond

	targets := Paths("/a", "/b", "/c", "/d", "/e", "/f", "/g", "/h")
	report := NewWarmer(fetcher, Config{MaxConcurrency: 2, Timeout: time.Second}).Warm(context.Background(), targets)

	if report.Fetched != 8 {
		t.Errorf("Fetched = %d, want 8", report.Fetched)
	}
	if max := atomic.LoadInt32(&fetcher.maxFlight); max > 2 {
		t.Errorf("max concurrent fetches = %d, want <= 2", max)
	}
}

func TestWarm_Timeout(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.delay = time.Second

	report := NewWarmer(fetcher, Config{MaxConcurrency: 1, Timeout: 10 * time.Millisecond}).
		Warm(context.Background(), Paths("/slow"))

	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if !errors.Is(report.Outcomes[0].Error, context.DeadlineExceeded) {
		t.Errorf("Error = %v, want deadline exceeded", report.Outcomes[0].Error)
	}
}

func TestWarm_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := NewWarmer(newMockFetcher(), DefaultConfig()).Warm(ctx, Paths("/a", "/b"))

	if report.Failed != 2 {
		t.Errorf("Failed = %d, want 2", report.Failed)
	}
	for i, o := range report.Outcomes {
		if !errors.Is(o.Error, context.Canceled) {
			t.Errorf("Outcomes[%d].Error = %v, want context.Canceled", i, o.Error)
		}
	}
}

func TestWarm_Empty(t *testing.T) {
	report := NewWarmer(newMockFetcher(), DefaultConfig()).Warm(context.Background(), nil)
	if len(report.Outcomes) != 0 || report.Failed != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}
