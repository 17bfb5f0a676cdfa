// Package aggregate implements the Aggregator: revenue summaries derived
// from the Store's per-transaction rows, combined across addresses and
// resolved against named block-count periods.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fluxrevenue/indexer/internal/store/clickhouse"
)

// Period names a fixed block-count window, resolved against the Store's
// current tip rather than wall-clock calendar boundaries, since the
// index is keyed by block height.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// blocksIn is the number of blocks each named period spans, assuming the
// chain's nominal block time.
var blocksIn = map[Period]uint64{
	PeriodDay:   720,
	PeriodWeek:  5040,
	PeriodMonth: 21600,
	PeriodYear:  262800,
}

// Store is the subset of the Store the aggregator depends on.
type Store interface {
	MinMaxHeights(ctx context.Context) (clickhouse.Frontier, error)
	DailyRevenue(ctx context.Context, address string, sinceTs int64) ([]clickhouse.DailyRevenueRow, error)
	TotalRevenue(ctx context.Context, address string) (clickhouse.TotalRevenue, error)
	RevenueInBlockRange(ctx context.Context, address string, startHeight, endHeight uint64) (clickhouse.RevenueInBlockRange, error)
}

// Metrics records duration and status of one aggregation query.
type Metrics interface {
	Observe(operation string, err error, started time.Time)
}

// Aggregator computes cross-address revenue summaries on demand.
type Aggregator struct {
	store   Store
	metrics Metrics
}

// New constructs an Aggregator.
func New(store Store, metrics Metrics) *Aggregator {
	return &Aggregator{store: store, metrics: metrics}
}

// DailyPoint is one day's combined revenue across every requested
// address.
type DailyPoint struct {
	Date  string
	Sum   decimal.Decimal
	Count uint64
}

// CombinedRevenue returns the day-by-day revenue series summed across
// every address in addresses, since sinceTs. Per the round-trip
// invariant, sum(result[i].Sum for all i) must equal the sum of every
// address's TotalRevenue over the same window.
func (a *Aggregator) CombinedRevenue(ctx context.Context, addresses []string, sinceTs int64) (points []DailyPoint, err error) {
	started := time.Now()
	defer func() { a.metrics.Observe("combined_revenue", err, started) }()

	byDate := map[string]*DailyPoint{}

	for _, addr := range addresses {
		rows, err := a.store.DailyRevenue(ctx, addr, sinceTs)
		if err != nil {
			return nil, fmt.Errorf("daily revenue for %s: %w", addr, err)
		}
		for _, row := range rows {
			point, ok := byDate[row.Date]
			if !ok {
				point = &DailyPoint{Date: row.Date}
				byDate[row.Date] = point
			}
			point.Sum = point.Sum.Add(row.Sum)
			point.Count += row.Count
		}
	}

	dates := lo.Keys(byDate)
	sort.Strings(dates)

	points = make([]DailyPoint, len(dates))
	for i, d := range dates {
		points[i] = *byDate[d]
	}
	return points, nil
}

// AddressBreakdown is one address's lifetime revenue summary.
type AddressBreakdown struct {
	Address string
	Total   clickhouse.TotalRevenue
	Daily   []clickhouse.DailyRevenueRow
}

// PerAddressBreakdown returns one AddressBreakdown per address, each
// carrying its lifetime total and its daily series since sinceTs.
func (a *Aggregator) PerAddressBreakdown(ctx context.Context, addresses []string, sinceTs int64) (breakdowns []AddressBreakdown, err error) {
	started := time.Now()
	defer func() { a.metrics.Observe("per_address_breakdown", err, started) }()

	breakdowns = make([]AddressBreakdown, 0, len(addresses))
	for _, addr := range addresses {
		total, err := a.store.TotalRevenue(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("total revenue for %s: %w", addr, err)
		}
		daily, err := a.store.DailyRevenue(ctx, addr, sinceTs)
		if err != nil {
			return nil, fmt.Errorf("daily revenue for %s: %w", addr, err)
		}
		breakdowns = append(breakdowns, AddressBreakdown{Address: addr, Total: total, Daily: daily})
	}
	return breakdowns, nil
}

// RevenueByPeriod resolves a named period to a block-height window ending
// at the Store's current tip, then sums revenue across addresses within
// that window.
func (a *Aggregator) RevenueByPeriod(ctx context.Context, addresses []string, period Period) (total clickhouse.RevenueInBlockRange, err error) {
	started := time.Now()
	defer func() { a.metrics.Observe("revenue_by_period", err, started) }()

	blocks, ok := blocksIn[period]
	if !ok {
		return clickhouse.RevenueInBlockRange{}, fmt.Errorf("unknown period %q", period)
	}

	frontier, err := a.store.MinMaxHeights(ctx)
	if err != nil {
		return clickhouse.RevenueInBlockRange{}, fmt.Errorf("read frontier: %w", err)
	}
	if !frontier.HasAny {
		return clickhouse.RevenueInBlockRange{}, nil
	}

	startHeight := uint64(0)
	if frontier.Highest > blocks {
		startHeight = frontier.Highest - blocks
	}

	for _, addr := range addresses {
		r, err := a.store.RevenueInBlockRange(ctx, addr, startHeight, frontier.Highest)
		if err != nil {
			return clickhouse.RevenueInBlockRange{}, fmt.Errorf("revenue in block range for %s: %w", addr, err)
		}
		total.Sum = total.Sum.Add(r.Sum)
		total.Count += r.Count
	}
	return total, nil
}

