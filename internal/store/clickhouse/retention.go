package clickhouse

import (
	"context"
	"fmt"
	"time"
)

// PruneBelow deletes transactions then blocks whose timestamp is below
// cutoff. Order matters: transactions reference block height without an
// enforced foreign key, so blocks must outlive every transaction that
// might still reference them during the sweep.
func (r *Repository) PruneBelow(ctx context.Context, cutoff int64) (err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("prune_below", err, started) }()

	if err = r.conn.Exec(ctx, `ALTER TABLE transactions DELETE WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("prune transactions: %w", err)
	}
	if err = r.conn.Exec(ctx, `ALTER TABLE blocks DELETE WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("prune blocks: %w", err)
	}
	return nil
}
