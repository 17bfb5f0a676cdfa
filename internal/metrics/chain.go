package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chainClientRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluxrevenue",
		Subsystem: "chain_client",
		Name:      "operations_total",
		Help:      "Count of outbound chain API calls.",
	}, []string{"operation", "status"})
	chainClientRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fluxrevenue",
		Subsystem: "chain_client",
		Name:      "operation_duration_seconds",
		Help:      "Duration of outbound chain API calls.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
	}, []string{"operation", "status"})
	chainClientCacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluxrevenue",
		Subsystem: "chain_client",
		Name:      "cache_events_total",
		Help:      "Count of cache hits, misses, and stale fallbacks per cache.",
	}, []string{"cache", "event"})
)

// ChainClient tracks metrics for the Chain Client component.
type ChainClient struct{}

// NewChainClient creates a ChainClient metrics collector.
func NewChainClient() *ChainClient {
	return &ChainClient{}
}

// Observe records duration and status of one outbound call.
func (m ChainClient) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	chainClientRequestsTotal.WithLabelValues(operation, status).Inc()
	chainClientRequestDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

// ObserveCacheEvent records a hit, miss, or stale-fallback against a
// named cache.
func (m ChainClient) ObserveCacheEvent(cache, event string) {
	chainClientCacheEvents.WithLabelValues(cache, event).Inc()
}
