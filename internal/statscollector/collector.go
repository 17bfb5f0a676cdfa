// Package statscollector implements the Network-Stats Collector: a
// periodic pass that pulls fleet-wide node, benchmark, utilization, and
// running-app statistics from the Chain Client and persists one snapshot
// row per table.
package statscollector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fluxrevenue/indexer/internal/clock"
	"github.com/fluxrevenue/indexer/internal/model"
)

// ChainClient is the subset of the Chain Client the collector depends on.
type ChainClient interface {
	Combined(ctx context.Context) (model.CombinedStats, model.DataSource, float64, error)
}

// Store is the subset of the Store the collector depends on.
type Store interface {
	InsertNodeStatsSnapshot(ctx context.Context, snap model.NodeStatsSnapshot) error
	InsertUtilizationSnapshot(ctx context.Context, snap model.UtilizationSnapshot) error
}

// Metrics records the duration, classification, and success rate of
// every collection pass.
type Metrics interface {
	Observe(dataSource string, successRate float64, started time.Time)
}

// Collector runs the periodic collection pass.
type Collector struct {
	chain    ChainClient
	store    Store
	metrics  Metrics
	logger   *zap.Logger
	interval time.Duration
}

// New constructs a Collector.
func New(chainClient ChainClient, store Store, metrics Metrics, logger *zap.Logger, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Collector{
		chain:    chainClient,
		store:    store,
		metrics:  metrics,
		logger:   logger.Named("network_stats_collector"),
		interval: interval,
	}
}

// Run blocks, collecting on a timer until ctx is canceled.
func (c *Collector) Run(ctx context.Context) error {
	for {
		if err := c.collectOnce(ctx); err != nil {
			c.logger.Error("collection pass failed", zap.Error(err))
		}
		if err := clock.SleepWithContext(ctx, c.interval); err != nil {
			return nil
		}
	}
}

func (c *Collector) collectOnce(ctx context.Context) error {
	started := time.Now()

	combined, source, successRate, err := c.chain.Combined(ctx)
	if err != nil {
		c.metrics.Observe(string(model.DataSourceFailed), 0, started)
		return err
	}
	defer func() { c.metrics.Observe(string(source), successRate, started) }()

	now := time.Now().Unix()
	note := ""
	if source == model.DataSourcePartial {
		note = "one or more upstream calls failed this pass"
	}

	nodeSnap := model.NodeStatsSnapshot{
		Timestamp:      now,
		Node:           combined.Node,
		Arcane:         combined.Arcane,
		DataSource:     source,
		APISuccessRate: successRate,
		Note:           note,
	}
	if err := c.store.InsertNodeStatsSnapshot(ctx, nodeSnap); err != nil {
		return err
	}

	utilSnap := model.UtilizationSnapshot{
		Timestamp:      now,
		Utilization:    combined.Utilization,
		RunningApps:    combined.RunningApps,
		DataSource:     source,
		APISuccessRate: successRate,
		Note:           note,
	}
	return c.store.InsertUtilizationSnapshot(ctx, utilSnap)
}
