package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxrevenue/indexer/internal/store/clickhouse"
)

type fakeMetrics struct{}

func (fakeMetrics) Observe(operation string, err error, started time.Time) {}

type fakeStore struct {
	daily     map[string][]clickhouse.DailyRevenueRow
	total     map[string]clickhouse.TotalRevenue
	byRange   map[string]clickhouse.RevenueInBlockRange
	frontier  clickhouse.Frontier

	gotStart, gotEnd uint64
}

func (f *fakeStore) MinMaxHeights(ctx context.Context) (clickhouse.Frontier, error) {
	return f.frontier, nil
}

func (f *fakeStore) DailyRevenue(ctx context.Context, address string, sinceTs int64) ([]clickhouse.DailyRevenueRow, error) {
	return f.daily[address], nil
}

func (f *fakeStore) TotalRevenue(ctx context.Context, address string) (clickhouse.TotalRevenue, error) {
	return f.total[address], nil
}

func (f *fakeStore) RevenueInBlockRange(ctx context.Context, address string, startHeight, endHeight uint64) (clickhouse.RevenueInBlockRange, error) {
	f.gotStart, f.gotEnd = startHeight, endHeight
	return f.byRange[address], nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCombinedRevenue_SumsMatchPerAddressTotals(t *testing.T) {
	store := &fakeStore{
		daily: map[string][]clickhouse.DailyRevenueRow{
			"addr1": {
				{Date: "2026-08-01", Sum: dec("10.5"), Count: 2},
				{Date: "2026-08-02", Sum: dec("5.0"), Count: 1},
			},
			"addr2": {
				{Date: "2026-08-01", Sum: dec("3.5"), Count: 1},
			},
		},
	}
	agg := New(store, fakeMetrics{})

	points, err := agg.CombinedRevenue(context.Background(), []string{"addr1", "addr2"}, 0)
	if err != nil {
		t.Fatalf("CombinedRevenue() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %+v, want 2 days", points)
	}
	if points[0].Date != "2026-08-01" || !points[0].Sum.Equal(dec("14.0")) || points[0].Count != 3 {
		t.Fatalf("day 1 = %+v", points[0])
	}
	if points[1].Date != "2026-08-02" || !points[1].Sum.Equal(dec("5.0")) {
		t.Fatalf("day 2 = %+v", points[1])
	}

	var grandTotal decimal.Decimal
	for _, p := range points {
		grandTotal = grandTotal.Add(p.Sum)
	}
	if !grandTotal.Equal(dec("19.0")) {
		t.Fatalf("grand total = %s, want 19.0", grandTotal)
	}
}

func TestRevenueByPeriod_ResolvesBlockWindowFromTip(t *testing.T) {
	store := &fakeStore{
		frontier: clickhouse.Frontier{HasAny: true, Highest: 1000, Lowest: 0, Count: 1001},
		byRange: map[string]clickhouse.RevenueInBlockRange{
			"addr1": {Sum: dec("7.0"), Count: 3},
		},
	}
	agg := New(store, fakeMetrics{})

	result, err := agg.RevenueByPeriod(context.Background(), []string{"addr1"}, PeriodDay)
	if err != nil {
		t.Fatalf("RevenueByPeriod() error = %v", err)
	}
	if !result.Sum.Equal(dec("7.0")) || result.Count != 3 {
		t.Fatalf("result = %+v", result)
	}
	if store.gotStart != 280 || store.gotEnd != 1000 {
		t.Fatalf("block window = [%d, %d], want [280, 1000] (tip 1000 minus one day of 720 blocks)", store.gotStart, store.gotEnd)
	}
}

func TestRevenueByPeriod_UnknownPeriodErrors(t *testing.T) {
	agg := New(&fakeStore{}, fakeMetrics{})
	if _, err := agg.RevenueByPeriod(context.Background(), nil, Period("fortnight")); err == nil {
		t.Fatal("expected an error for an unknown period")
	}
}
