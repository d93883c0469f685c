package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Response is the transport-level view of an origin response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs GET requests. A returned error means the request itself
// failed (network, DNS, timeout); any received status is reported via Response.
type Transport interface {
	Get(ctx context.Context, target string, header http.Header) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, target string, header http.Header) (*Response, error)

// Get calls f.
func (f TransportFunc) Get(ctx context.Context, target string, header http.Header) (*Response, error) {
	return f(ctx, target, header)
}

// TransportConfig holds the HTTP transport configuration.
type TransportConfig struct {
	// BaseURL is prepended to every requested path (e.g. "https://example.com")
	BaseURL string

	// UserAgent is sent with every request (optional)
	UserAgent string

	// Timeout bounds each request, including reading the body
	Timeout time.Duration
}

// DefaultTransportConfig returns a default configuration for baseURL.
func DefaultTransportConfig(baseURL string) TransportConfig {
	return TransportConfig{
		BaseURL:   baseURL,
		UserAgent: "pagecache/0.1.0",
		Timeout:   30 * time.Second,
	}
}

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewHTTPTransport creates an HTTP transport.
func NewHTTPTransport(cfg TransportConfig) (*HTTPTransport, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
	}, nil
}

// Get performs a GET request for target relative to the base URL.
func (t *HTTPTransport) Get(ctx context.Context, target string, header http.Header) (*Response, error) {
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (t *HTTPTransport) SetHTTPClient(client *http.Client) {
	t.httpClient = client
}
