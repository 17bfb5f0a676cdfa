package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DailyRevenueRow is one day's aggregated revenue for one address.
type DailyRevenueRow struct {
	Date  string // YYYY-MM-DD, derived from timestamp
	Sum   decimal.Decimal
	Count uint64
}

// DailyRevenue returns per-day revenue totals for address since sinceTs.
func (r *Repository) DailyRevenue(ctx context.Context, address string, sinceTs int64) (rows []DailyRevenueRow, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("daily_revenue", err, started) }()

	const query = `
SELECT toDate(toDateTime(timestamp)) AS day, sum(value), count()
FROM transactions FINAL
WHERE address = ? AND timestamp >= ?
GROUP BY day
ORDER BY day`

	result, err := r.conn.Query(ctx, query, address, sinceTs)
	if err != nil {
		return nil, fmt.Errorf("query daily revenue: %w", err)
	}
	defer result.Close()

	for result.Next() {
		var row DailyRevenueRow
		if err = result.Scan(&row.Date, &row.Sum, &row.Count); err != nil {
			return nil, fmt.Errorf("scan daily revenue row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TotalRevenue is the lifetime revenue summary for one address.
type TotalRevenue struct {
	Sum      decimal.Decimal
	Count    uint64
	FirstTS  int64
	LastTS   int64
}

// TotalRevenue returns the lifetime revenue summary for address.
func (r *Repository) TotalRevenue(ctx context.Context, address string) (total TotalRevenue, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("total_revenue", err, started) }()

	const query = `
SELECT sum(value), count(), min(timestamp), max(timestamp)
FROM transactions FINAL
WHERE address = ?`

	rows, err := r.conn.Query(ctx, query, address)
	if err != nil {
		return TotalRevenue{}, fmt.Errorf("query total revenue: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return TotalRevenue{}, nil
	}
	if err = rows.Scan(&total.Sum, &total.Count, &total.FirstTS, &total.LastTS); err != nil {
		return TotalRevenue{}, fmt.Errorf("scan total revenue: %w", err)
	}
	return total, nil
}

// RevenueInBlockRange is the revenue summary for one address within
// [startHeight, endHeight].
type RevenueInBlockRange struct {
	Sum   decimal.Decimal
	Count uint64
}

// RevenueInBlockRange returns the revenue summary for address within a
// block-height window.
func (r *Repository) RevenueInBlockRange(ctx context.Context, address string, startHeight, endHeight uint64) (result RevenueInBlockRange, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("revenue_in_block_range", err, started) }()

	const query = `
SELECT sum(value), count()
FROM transactions FINAL
WHERE address = ? AND block_height BETWEEN ? AND ?`

	rows, err := r.conn.Query(ctx, query, address, startHeight, endHeight)
	if err != nil {
		return RevenueInBlockRange{}, fmt.Errorf("query revenue in block range: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return RevenueInBlockRange{}, nil
	}
	if err = rows.Scan(&result.Sum, &result.Count); err != nil {
		return RevenueInBlockRange{}, fmt.Errorf("scan revenue in block range: %w", err)
	}
	return result, nil
}

// TransactionPage is one page of a paginated transaction listing.
type TransactionPage struct {
	Transactions []TransactionRow
	Total        uint64
}

// TransactionRow is one listed transaction.
type TransactionRow struct {
	BlockHeight uint64
	TxHash      string
	VoutIndex   uint32
	Address     string
	FromAddress string
	Value       decimal.Decimal
	Timestamp   int64
}

// pageLimitOffset applies ListTransactions' defaults (page 1 and limit 20
// for non-positive values) and returns the effective limit and row offset.
func pageLimitOffset(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

// ListTransactions returns a page of transactions for address, optionally
// filtered by a substring search against tx_hash, from_address, or the
// stringified value.
func (r *Repository) ListTransactions(ctx context.Context, address string, page, limit int, search string) (result TransactionPage, err error) {
	started := time.Now()
	defer func() { r.metrics.Observe("list_transactions", err, started) }()

	limit, offset := pageLimitOffset(page, limit)

	whereClause := `address = ?`
	args := []any{address}
	if search != "" {
		whereClause += ` AND (positionCaseInsensitive(tx_hash, ?) > 0 OR positionCaseInsensitive(from_address, ?) > 0 OR positionCaseInsensitive(toString(value), ?) > 0)`
		args = append(args, search, search, search)
	}

	countQuery := `SELECT count() FROM transactions FINAL WHERE ` + whereClause
	countRows, err := r.conn.Query(ctx, countQuery, args...)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("query transaction count: %w", err)
	}
	if countRows.Next() {
		if err = countRows.Scan(&result.Total); err != nil {
			countRows.Close()
			return TransactionPage{}, fmt.Errorf("scan transaction count: %w", err)
		}
	}
	countRows.Close()

	listQuery := `
SELECT block_height, tx_hash, vout_index, address, from_address, value, timestamp
FROM transactions FINAL
WHERE ` + whereClause + `
ORDER BY block_height DESC
LIMIT ? OFFSET ?`
	listArgs := append(append([]any{}, args...), limit, offset)

	rows, err := r.conn.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("query transaction list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row TransactionRow
		if err = rows.Scan(&row.BlockHeight, &row.TxHash, &row.VoutIndex, &row.Address, &row.FromAddress, &row.Value, &row.Timestamp); err != nil {
			return TransactionPage{}, fmt.Errorf("scan transaction row: %w", err)
		}
		result.Transactions = append(result.Transactions, row)
	}
	return result, nil
}
