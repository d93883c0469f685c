package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sternrassler/pagecache/pkg/cache"
	"github.com/Sternrassler/pagecache/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestHandler(t *testing.T) {
	store, err := cache.New(cache.Config{})
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	store.Set("/metrics-test", []byte("body"), cache.SetOptions{ETag: `"m"`})
	store.Get("/metrics-test", nil)

	transport := client.TransportFunc(func(ctx context.Context, target string, header http.Header) (*client.Response, error) {
		return &client.Response{StatusCode: http.StatusNotModified, Header: http.Header{}}, nil
	})
	fetcher := client.NewFetcher(store, transport)
	if _, err := fetcher.Fetch(context.Background(), "/metrics-test", client.FetchOptions{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}

	for _, name := range []string{
		"pagecache_hits_total",
		"pagecache_entries",
		"pagecache_size_bytes",
		"pagecache_conditional_requests_total",
		`pagecache_fetch_total{outcome="not_modified"}`,
		"pagecache_fetch_duration_seconds_bucket",
		"promhttp_metric_handler_requests_total",
	} {
		if !strings.Contains(bodyStr, name) {
			t.Errorf("Expected metrics output to contain %s", name)
		}
	}
}
