package clickhouse

import (
	"context"
	"fmt"
	"time"
)

// Frontier is the Store's observed block height range.
type Frontier struct {
	Count   uint64
	Highest uint64
	Lowest  uint64
	HasAny  bool
}

// MinMaxHeights returns the current count, highest, and lowest stored
// block heights. HasAny is false when the table is empty, in which case
// Highest and Lowest are meaningless.
func (r *Repository) MinMaxHeights(ctx context.Context) (frontier Frontier, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("min_max_heights", err, started) }()

	const query = `SELECT count(), min(height), max(height) FROM blocks FINAL`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return Frontier{}, fmt.Errorf("query min/max heights: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return Frontier{}, fmt.Errorf("min/max heights query returned no row")
	}

	var count, min, max uint64
	if err = rows.Scan(&count, &min, &max); err != nil {
		return Frontier{}, fmt.Errorf("scan min/max heights: %w", err)
	}

	return Frontier{Count: count, Highest: max, Lowest: min, HasAny: count > 0}, nil
}

// ExistsWithin reports whether any block row exists whose timestamp is
// within tolerance seconds of ts.
func (r *Repository) ExistsWithin(ctx context.Context, ts int64, toleranceSec int64) (exists bool, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("exists_within", err, started) }()

	const query = `SELECT count() FROM blocks FINAL WHERE timestamp BETWEEN ? AND ?`

	rows, err := r.conn.Query(ctx, query, ts-toleranceSec, ts+toleranceSec)
	if err != nil {
		return false, fmt.Errorf("query exists within: %w", err)
	}
	defer rows.Close()

	var count uint64
	if !rows.Next() {
		return false, nil
	}
	if err = rows.Scan(&count); err != nil {
		return false, fmt.Errorf("scan exists within: %w", err)
	}
	return count > 0, nil
}

// MissingHeights returns every height in [start, end] inclusive that has
// no corresponding blocks row, used by the sync engine's gap-fill pass.
func (r *Repository) MissingHeights(ctx context.Context, start, end uint64) (missing []uint64, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("missing_heights", err, started) }()

	if start > end {
		return nil, nil
	}

	const query = `
SELECT number AS height
FROM numbers(?, ?)
WHERE height NOT IN (SELECT height FROM blocks FINAL WHERE height BETWEEN ? AND ?)`

	count := end - start + 1
	rows, err := r.conn.Query(ctx, query, start, count, start, end)
	if err != nil {
		return nil, fmt.Errorf("query missing heights: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h uint64
		if err = rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan missing height: %w", err)
		}
		missing = append(missing, h)
	}
	return missing, nil
}
