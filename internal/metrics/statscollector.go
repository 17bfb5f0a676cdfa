package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statsCollectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluxrevenue",
		Subsystem: "network_stats_collector",
		Name:      "collections_total",
		Help:      "Count of network-stats collection passes, labeled by data source classification.",
	}, []string{"data_source"})
	statsCollectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fluxrevenue",
		Subsystem: "network_stats_collector",
		Name:      "collection_duration_seconds",
		Help:      "Duration of one network-stats collection pass.",
		Buckets:   []float64{.1, .5, 1, 2, 5, 10, 20},
	}, []string{"data_source"})
	statsAPISuccessRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fluxrevenue",
		Subsystem: "network_stats_collector",
		Name:      "api_success_rate",
		Help:      "Percentage (0-100) of the last collection pass's calls that hit the live API.",
	}, []string{})
)

// StatsCollector tracks metrics for the network-stats collection pass.
type StatsCollector struct{}

// NewStatsCollector creates a StatsCollector metrics collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{}
}

// Observe records the duration, classification, and success rate of one
// collection pass.
func (m StatsCollector) Observe(dataSource string, successRate float64, started time.Time) {
	statsCollectionsTotal.WithLabelValues(dataSource).Inc()
	statsCollectionDuration.WithLabelValues(dataSource).Observe(time.Since(started).Seconds())
	statsAPISuccessRate.WithLabelValues().Set(successRate)
}
