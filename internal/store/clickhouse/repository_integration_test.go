package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	tcClickhouse "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"github.com/fluxrevenue/indexer/internal/model"
)

const clickhouseImage = "clickhouse/clickhouse-server:25.11"

// fakeMetrics is a hand-written stand-in for Metrics: this environment
// cannot run mockgen, so repository tests record observations in a small
// slice instead of a generated mock. No test currently reads them back.
type fakeMetrics struct {
	observations []fakeObservation
}

type fakeObservation struct {
	operation string
	err       error
}

func (f *fakeMetrics) Observe(operation string, err error, _ time.Time) {
	f.observations = append(f.observations, fakeObservation{operation: operation, err: err})
}

type RepositorySuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	container *tcClickhouse.ClickHouseContainer
	dsn       string
	repo      *Repository
	metrics   *fakeMetrics

	testCtx    context.Context
	testCancel context.CancelFunc
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)

	container, err := tcClickhouse.Run(s.ctx,
		clickhouseImage,
		tcClickhouse.WithUsername("default"),
		tcClickhouse.WithDatabase("default"),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)
	s.dsn = dsn
}

func (s *RepositorySuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *RepositorySuite) SetupTest() {
	s.testCtx, s.testCancel = context.WithTimeout(context.Background(), time.Minute)
	s.metrics = &fakeMetrics{}

	s.Require().NoError(applyMigrationsUp(s.dsn))

	repo, err := NewRepository(s.dsn, s.metrics)
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RepositorySuite) TearDownTest() {
	if s.testCancel != nil {
		s.testCancel()
	}
	s.Require().NoError(applyMigrationsDown(s.dsn))
}

func (s *RepositorySuite) TestBatchInsert_IsIdempotent() {
	blocks := []model.Block{
		{Height: 100, Hash: "h100", Timestamp: 1700000000, SyncedAt: 1700000100},
	}
	txs := []model.Transaction{
		{BlockHeight: 100, TxHash: "tx1", VoutIndex: 0, Address: "tWatched", Value: decimalFromFloat(12.5), Timestamp: 1700000000},
	}

	s.Require().NoError(s.repo.BatchInsert(s.testCtx, blocks, txs))
	s.Require().NoError(s.repo.BatchInsert(s.testCtx, blocks, txs))

	frontier, err := s.repo.MinMaxHeights(s.testCtx)
	s.Require().NoError(err)
	s.Equal(uint64(1), frontier.Count)
}

func (s *RepositorySuite) TestTotalRevenue_DoesNotDoubleCountDuplicateInserts() {
	blocks := []model.Block{
		{Height: 200, Hash: "h200", Timestamp: 1700000000, SyncedAt: 1700000100},
	}
	txs := []model.Transaction{
		{BlockHeight: 200, TxHash: "tx200", VoutIndex: 0, Address: "tDup", Value: decimalFromFloat(12.5), Timestamp: 1700000000},
	}

	s.Require().NoError(s.repo.BatchInsert(s.testCtx, blocks, txs))
	s.Require().NoError(s.repo.BatchInsert(s.testCtx, blocks, txs))

	total, err := s.repo.TotalRevenue(s.testCtx, "tDup")
	s.Require().NoError(err)
	s.Equal(uint64(1), total.Count)
	s.True(total.Sum.Equal(decimalFromFloat(12.5)), "sum = %s, want 12.5 (FINAL must dedup the re-inserted row)", total.Sum)
}

func (s *RepositorySuite) TestMinMaxHeights_EmptyTable() {
	frontier, err := s.repo.MinMaxHeights(s.testCtx)
	s.Require().NoError(err)
	s.False(frontier.HasAny)
}

func (s *RepositorySuite) TestDailyRevenue_SumsMatchTotalRevenue() {
	blocks := []model.Block{
		{Height: 1, Hash: "h1", Timestamp: 1700000000, SyncedAt: 1700000000},
		{Height: 2, Hash: "h2", Timestamp: 1700086400, SyncedAt: 1700086400},
	}
	txs := []model.Transaction{
		{BlockHeight: 1, TxHash: "tx1", VoutIndex: 0, Address: "tAddr", Value: decimalFromFloat(10), Timestamp: 1700000000},
		{BlockHeight: 2, TxHash: "tx2", VoutIndex: 0, Address: "tAddr", Value: decimalFromFloat(5), Timestamp: 1700086400},
	}
	s.Require().NoError(s.repo.BatchInsert(s.testCtx, blocks, txs))

	daily, err := s.repo.DailyRevenue(s.testCtx, "tAddr", 0)
	s.Require().NoError(err)

	total, err := s.repo.TotalRevenue(s.testCtx, "tAddr")
	s.Require().NoError(err)

	var dailySum float64
	for _, d := range daily {
		f, _ := d.Sum.Float64()
		dailySum += f
	}
	totalSum, _ := total.Sum.Float64()
	s.InDelta(totalSum, dailySum, 0.0000001)
}

func (s *RepositorySuite) TestBackfillSender() {
	blocks := []model.Block{{Height: 1, Hash: "h1", Timestamp: 1700000000, SyncedAt: 1700000000}}
	txs := []model.Transaction{
		{BlockHeight: 1, TxHash: "tx1", VoutIndex: 0, Address: "tAddr", Value: decimalFromFloat(1), Timestamp: 1700000000},
	}
	s.Require().NoError(s.repo.BatchInsert(s.testCtx, blocks, txs))

	key := model.TransactionKey{TxHash: "tx1", VoutIndex: 0, Address: "tAddr"}
	s.Require().NoError(s.repo.BackfillSender(s.testCtx, key, "tSender"))
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working dir: %w", err)
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir, nil
		}
		next := filepath.Dir(dir)
		if next == dir {
			return "", fmt.Errorf("go.mod not found from %s", dir)
		}
		dir = next
	}
}

func applyMigrationsUp(dsn string) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = closeMigrator(m) }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func applyMigrationsDown(dsn string) error {
	m, err := newMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = closeMigrator(m) }()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

func newMigrator(dsn string) (*migrate.Migrate, error) {
	root, err := moduleRoot()
	if err != nil {
		return nil, err
	}

	sourceURL := fmt.Sprintf("file://%s", filepath.Join(root, "migrations", "clickhouse"))
	m, err := migrate.New(sourceURL, withMultiStatement(dsn))
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return m, nil
}

func withMultiStatement(dsn string) string {
	if strings.Contains(dsn, "x-multi-statement=") {
		return dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + "x-multi-statement=true"
}

func closeMigrator(m *migrate.Migrate) error {
	if m == nil {
		return nil
	}
	sourceErr, dbErr := m.Close()
	if sourceErr != nil && dbErr != nil {
		return fmt.Errorf("close migrator: source: %v; database: %v", sourceErr, dbErr)
	}
	if sourceErr != nil {
		return fmt.Errorf("close migrator: source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migrator: database: %w", dbErr)
	}
	return nil
}
