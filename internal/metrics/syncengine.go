package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluxrevenue",
		Subsystem: "sync_engine",
		Name:      "cycles_total",
		Help:      "Count of completed sync cycles.",
	}, []string{"status"})
	syncCycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fluxrevenue",
		Subsystem: "sync_engine",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of a full sync cycle.",
		Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"status"})
	syncBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluxrevenue",
		Subsystem: "sync_engine",
		Name:      "batches_total",
		Help:      "Count of processed batches, labeled by direction and status.",
	}, []string{"direction", "status"})
	syncBlocksProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluxrevenue",
		Subsystem: "sync_engine",
		Name:      "blocks_processed_total",
		Help:      "Count of blocks processed, labeled by direction.",
	}, []string{"direction"})
)

// SyncEngine tracks metrics for the sync engine component.
type SyncEngine struct{}

// NewSyncEngine creates a SyncEngine metrics collector.
func NewSyncEngine() *SyncEngine {
	return &SyncEngine{}
}

// ObserveCycle records the duration and outcome of one full sync cycle.
func (m SyncEngine) ObserveCycle(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	syncCyclesTotal.WithLabelValues(status).Inc()
	syncCycleDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

// ObserveBatch records the outcome of one batch within a phase.
func (m SyncEngine) ObserveBatch(direction string, blocks int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	syncBatchesTotal.WithLabelValues(direction, status).Inc()
	syncBlocksProcessedTotal.WithLabelValues(direction).Add(float64(blocks))
}
