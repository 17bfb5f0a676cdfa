package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aggregatorQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluxrevenue",
		Subsystem: "aggregator",
		Name:      "queries_total",
		Help:      "Count of aggregation queries served.",
	}, []string{"operation", "status"})
	aggregatorQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fluxrevenue",
		Subsystem: "aggregator",
		Name:      "query_duration_seconds",
		Help:      "Duration of aggregation queries.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"operation", "status"})
)

// Aggregator tracks metrics for the read-side aggregation component.
type Aggregator struct{}

// NewAggregator creates an Aggregator metrics collector.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Observe records duration and status of one aggregation query.
func (m Aggregator) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	aggregatorQueriesTotal.WithLabelValues(operation, status).Inc()
	aggregatorQueryDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}
