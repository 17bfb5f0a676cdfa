package statscollector

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fluxrevenue/indexer/internal/model"
)

type fakeChainClient struct {
	combined     model.CombinedStats
	dataSource   model.DataSource
	successRate  float64
	err          error
}

func (f *fakeChainClient) Combined(ctx context.Context) (model.CombinedStats, model.DataSource, float64, error) {
	return f.combined, f.dataSource, f.successRate, f.err
}

type fakeStore struct {
	nodeSnaps []model.NodeStatsSnapshot
	utilSnaps []model.UtilizationSnapshot
	insertErr error
}

func (f *fakeStore) InsertNodeStatsSnapshot(ctx context.Context, snap model.NodeStatsSnapshot) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nodeSnaps = append(f.nodeSnaps, snap)
	return nil
}

func (f *fakeStore) InsertUtilizationSnapshot(ctx context.Context, snap model.UtilizationSnapshot) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.utilSnaps = append(f.utilSnaps, snap)
	return nil
}

type fakeMetrics struct {
	observed []struct {
		dataSource  string
		successRate float64
	}
}

func (f *fakeMetrics) Observe(dataSource string, successRate float64, started time.Time) {
	f.observed = append(f.observed, struct {
		dataSource  string
		successRate float64
	}{dataSource, successRate})
}

func TestCollectOnce_PersistsBothSnapshotsWithMatchingClassification(t *testing.T) {
	chainClient := &fakeChainClient{
		combined:    model.CombinedStats{Node: model.NodeStats{Total: 10}},
		dataSource:  model.DataSourceAPI,
		successRate: 100,
	}
	store := &fakeStore{}
	metrics := &fakeMetrics{}

	c := New(chainClient, store, metrics, zap.NewNop(), time.Minute)
	if err := c.collectOnce(context.Background()); err != nil {
		t.Fatalf("collectOnce() error = %v", err)
	}

	if len(store.nodeSnaps) != 1 || store.nodeSnaps[0].DataSource != model.DataSourceAPI {
		t.Fatalf("node snapshots = %+v", store.nodeSnaps)
	}
	if len(store.utilSnaps) != 1 || store.utilSnaps[0].DataSource != model.DataSourceAPI {
		t.Fatalf("utilization snapshots = %+v", store.utilSnaps)
	}
	if len(metrics.observed) != 1 || metrics.observed[0].dataSource != "api" {
		t.Fatalf("observed metrics = %+v", metrics.observed)
	}
}

func TestCollectOnce_PartialSourceAddsNote(t *testing.T) {
	chainClient := &fakeChainClient{dataSource: model.DataSourcePartial, successRate: 50}
	store := &fakeStore{}
	metrics := &fakeMetrics{}

	c := New(chainClient, store, metrics, zap.NewNop(), time.Minute)
	if err := c.collectOnce(context.Background()); err != nil {
		t.Fatalf("collectOnce() error = %v", err)
	}

	if store.nodeSnaps[0].Note == "" {
		t.Fatalf("expected a note on a partial snapshot")
	}
}

func TestCollectOnce_ChainFailureSkipsPersistence(t *testing.T) {
	chainClient := &fakeChainClient{err: errors.New("upstream unreachable")}
	store := &fakeStore{}
	metrics := &fakeMetrics{}

	c := New(chainClient, store, metrics, zap.NewNop(), time.Minute)
	if err := c.collectOnce(context.Background()); err == nil {
		t.Fatal("expected an error")
	}

	if len(store.nodeSnaps) != 0 || len(store.utilSnaps) != 0 {
		t.Fatalf("expected no snapshots persisted, got node=%d util=%d", len(store.nodeSnaps), len(store.utilSnaps))
	}
	if len(metrics.observed) != 1 || metrics.observed[0].dataSource != "failed" {
		t.Fatalf("observed metrics = %+v", metrics.observed)
	}
}
