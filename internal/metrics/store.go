package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluxrevenue",
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Count of store repository operations.",
	}, []string{"operation", "status"})
	storeOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fluxrevenue",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of store repository operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
	}, []string{"operation", "status"})
)

// Store tracks metrics for the ClickHouse store component.
type Store struct{}

// NewStore creates a Store metrics collector.
func NewStore() *Store {
	return &Store{}
}

// Observe records duration and status of one repository operation.
func (m Store) Observe(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	storeOperationsTotal.WithLabelValues(operation, status).Inc()
	storeOperationDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}
