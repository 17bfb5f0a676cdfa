package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxrevenue/indexer/internal/model"
)

// BatchInsert stores blocks and transactions as one atomic unit: the
// transactions batch is only sent once the blocks batch has successfully
// sent, and a single function-level deferred metrics observation covers
// the whole call. Duplicate rows (same height, or same (tx_hash,
// vout_index, address) triple) are silently ignored by the table's
// insert semantics.
func (r *Repository) BatchInsert(ctx context.Context, blocks []model.Block, transactions []model.Transaction) (err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("batch_insert", err, started) }()

	if len(blocks) == 0 && len(transactions) == 0 {
		return nil
	}

	if len(blocks) > 0 {
		if err = r.insertBlocks(ctx, blocks); err != nil {
			return fmt.Errorf("insert blocks: %w", err)
		}
	}

	if len(transactions) > 0 {
		if err = r.insertTransactions(ctx, transactions); err != nil {
			return fmt.Errorf("insert transactions: %w", err)
		}
	}

	return nil
}

func (r *Repository) insertBlocks(ctx context.Context, blocks []model.Block) error {
	const query = `INSERT INTO blocks (height, hash, timestamp, synced_at) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare blocks batch: %w", err)
	}

	for _, b := range blocks {
		if err := batch.Append(b.Height, b.Hash, b.Timestamp, b.SyncedAt); err != nil {
			return fmt.Errorf("append block: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send blocks batch: %w", err)
	}
	return nil
}

func (r *Repository) insertTransactions(ctx context.Context, transactions []model.Transaction) error {
	const query = `INSERT INTO transactions (block_height, tx_hash, vout_index, address, from_address, sender_txid, sender_vout, value, timestamp) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare transactions batch: %w", err)
	}

	for _, tx := range transactions {
		if err := batch.Append(
			tx.BlockHeight,
			tx.TxHash,
			tx.VoutIndex,
			tx.Address,
			tx.FromAddress,
			tx.Sender.TxID,
			tx.Sender.Vout,
			tx.Value,
			tx.Timestamp,
		); err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send transactions batch: %w", err)
	}
	return nil
}
