package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxrevenue/indexer/internal/model"
)

// InsertNodeStatsSnapshot persists one row of network_node_stats.
func (r *Repository) InsertNodeStatsSnapshot(ctx context.Context, snap model.NodeStatsSnapshot) (err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("insert_node_stats_snapshot", err, started) }()

	const query = `
INSERT INTO network_node_stats (
	timestamp, total, cumulus, nimbus, stratus,
	avg_benchmark_score, nodes_reporting,
	data_source, api_success_rate, note
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare node stats batch: %w", err)
	}
	if err = batch.Append(
		snap.Timestamp,
		snap.Node.Total, snap.Node.Cumulus, snap.Node.Nimbus, snap.Node.Stratus,
		snap.Arcane.AverageBenchmarkScore, snap.Arcane.NodesReporting,
		string(snap.DataSource), snap.APISuccessRate, snap.Note,
	); err != nil {
		return fmt.Errorf("append node stats snapshot: %w", err)
	}
	if err = batch.Send(); err != nil {
		return fmt.Errorf("send node stats snapshot: %w", err)
	}
	return nil
}

// InsertUtilizationSnapshot persists one row of network_utilization_stats.
func (r *Repository) InsertUtilizationSnapshot(ctx context.Context, snap model.UtilizationSnapshot) (err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("insert_utilization_snapshot", err, started) }()

	const query = `
INSERT INTO network_utilization_stats (
	timestamp, total_cpu, total_ram_bytes, total_ssd_bytes, utilization_pct,
	total_apps, unique_apps,
	data_source, api_success_rate, note
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare utilization stats batch: %w", err)
	}
	if err = batch.Append(
		snap.Timestamp,
		snap.Utilization.TotalCPU, snap.Utilization.TotalRAMBytes, snap.Utilization.TotalSSDBytes, snap.Utilization.UtilizationPct,
		snap.RunningApps.TotalApps, snap.RunningApps.UniqueApps,
		string(snap.DataSource), snap.APISuccessRate, snap.Note,
	); err != nil {
		return fmt.Errorf("append utilization snapshot: %w", err)
	}
	if err = batch.Send(); err != nil {
		return fmt.Errorf("send utilization snapshot: %w", err)
	}
	return nil
}

// LatestNodeStatsSnapshot returns the most recently persisted row of
// network_node_stats.
func (r *Repository) LatestNodeStatsSnapshot(ctx context.Context) (snap model.NodeStatsSnapshot, found bool, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("latest_node_stats_snapshot", err, started) }()

	const query = `
SELECT timestamp, total, cumulus, nimbus, stratus, avg_benchmark_score, nodes_reporting, data_source, api_success_rate, note
FROM network_node_stats
ORDER BY timestamp DESC
LIMIT 1`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return model.NodeStatsSnapshot{}, false, fmt.Errorf("query latest node stats snapshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return model.NodeStatsSnapshot{}, false, nil
	}

	var dataSource string
	if err = rows.Scan(
		&snap.Timestamp,
		&snap.Node.Total, &snap.Node.Cumulus, &snap.Node.Nimbus, &snap.Node.Stratus,
		&snap.Arcane.AverageBenchmarkScore, &snap.Arcane.NodesReporting,
		&dataSource, &snap.APISuccessRate, &snap.Note,
	); err != nil {
		return model.NodeStatsSnapshot{}, false, fmt.Errorf("scan latest node stats snapshot: %w", err)
	}
	snap.DataSource = model.DataSource(dataSource)
	return snap, true, nil
}

// LatestUtilizationSnapshot returns the most recently persisted row of
// network_utilization_stats.
func (r *Repository) LatestUtilizationSnapshot(ctx context.Context) (snap model.UtilizationSnapshot, found bool, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("latest_utilization_snapshot", err, started) }()

	const query = `
SELECT timestamp, total_cpu, total_ram_bytes, total_ssd_bytes, utilization_pct, total_apps, unique_apps, data_source, api_success_rate, note
FROM network_utilization_stats
ORDER BY timestamp DESC
LIMIT 1`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return model.UtilizationSnapshot{}, false, fmt.Errorf("query latest utilization snapshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return model.UtilizationSnapshot{}, false, nil
	}

	var dataSource string
	if err = rows.Scan(
		&snap.Timestamp,
		&snap.Utilization.TotalCPU, &snap.Utilization.TotalRAMBytes, &snap.Utilization.TotalSSDBytes, &snap.Utilization.UtilizationPct,
		&snap.RunningApps.TotalApps, &snap.RunningApps.UniqueApps,
		&dataSource, &snap.APISuccessRate, &snap.Note,
	); err != nil {
		return model.UtilizationSnapshot{}, false, fmt.Errorf("scan latest utilization snapshot: %w", err)
	}
	snap.DataSource = model.DataSource(dataSource)
	return snap, true, nil
}
