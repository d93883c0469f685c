package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes used as metric labels.
const (
	outcomeFresh         = "fresh"
	outcomeNotModified   = "not_modified"
	outcomeStaleFallback = "stale_fallback"
	outcomeError         = "error"
)

// Prometheus metrics for fetch operations.
var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagecache_fetch_total",
		Help: "Total fetches by outcome",
	}, []string{"outcome"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagecache_fetch_errors_total",
		Help: "Total transport and origin failures by class, including those served from cache",
	}, []string{"class"})

	conditionalRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagecache_conditional_requests_total",
		Help: "Total requests sent with If-None-Match or If-Modified-Since",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagecache_fetch_duration_seconds",
		Help:    "Fetch duration in seconds, including the origin round-trip",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
)
