package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxrevenue/indexer/internal/model"
)

// MissingSenderTransactions returns up to limit transactions whose
// from_address is still unresolved, used by the sender-backfill pass.
func (r *Repository) MissingSenderTransactions(ctx context.Context, limit uint64) (txs []model.Transaction, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("missing_sender_transactions", err, started) }()

	const query = `
SELECT block_height, tx_hash, vout_index, address, sender_txid, sender_vout, value, timestamp
FROM transactions FINAL
WHERE from_address = '' AND sender_txid != ''
ORDER BY block_height
LIMIT ?`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query missing sender transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tx model.Transaction
		var senderTxID string
		var senderVout uint32
		if err = rows.Scan(&tx.BlockHeight, &tx.TxHash, &tx.VoutIndex, &tx.Address, &senderTxID, &senderVout, &tx.Value, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("scan missing sender transaction: %w", err)
		}
		tx.Sender = model.Unresolved(senderTxID, senderVout)
		txs = append(txs, tx)
	}
	return txs, nil
}

// BackfillSender writes a resolved sender address back onto one
// previously-inserted transaction row, identified by its uniqueness
// triple.
func (r *Repository) BackfillSender(ctx context.Context, key model.TransactionKey, address string) (err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("backfill_sender", err, started) }()

	const query = `ALTER TABLE transactions UPDATE from_address = ? WHERE tx_hash = ? AND vout_index = ? AND address = ?`

	if err = r.conn.Exec(ctx, query, address, key.TxHash, key.VoutIndex, key.Address); err != nil {
		return fmt.Errorf("backfill sender: %w", err)
	}
	return nil
}
