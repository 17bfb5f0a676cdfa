// Package syncengine implements the Sync Engine: the orchestrator that
// plans, fetches, analyzes, and commits blocks on a recurring cycle, then
// runs gap detection and retention pruning after it. Sender backfill is a
// separate entry point (BackfillSenders) that the cycle does not call.
package syncengine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fluxrevenue/indexer/internal/clock"
	"github.com/fluxrevenue/indexer/internal/model"
	"github.com/fluxrevenue/indexer/internal/store/clickhouse"
	"github.com/fluxrevenue/indexer/internal/syncstatus"
	"github.com/fluxrevenue/indexer/pkg/batcher"
)

// FullChainClient is everything the engine needs from the Chain Client:
// the executor's dependencies plus the current tip.
type FullChainClient interface {
	ChainClient
	Tip(ctx context.Context) (uint64, error)
}

// FullStore is everything the engine needs from the Store: the
// executor's dependency plus frontier inspection, retention, and sender
// backfill.
type FullStore interface {
	Store
	MinMaxHeights(ctx context.Context) (clickhouse.Frontier, error)
	MissingHeights(ctx context.Context, start, end uint64) ([]uint64, error)
	PruneBelow(ctx context.Context, cutoff int64) error
	MissingSenderTransactions(ctx context.Context, limit uint64) ([]model.Transaction, error)
	BackfillSender(ctx context.Context, key model.TransactionKey, address string) error
}

// Config is the engine's tunable surface, sourced from the service
// configuration.
type Config struct {
	BudgetPerCycle uint64
	BatchSize      uint64
	RetentionDays  uint64
	BlocksPerDay   uint64
	CycleInterval  time.Duration
}

// CycleMetrics records the duration and outcome of a full sync cycle.
type CycleMetrics interface {
	Metrics
	ObserveCycle(err error, started time.Time)
}

// Engine runs the plan/fetch/analyze/commit cycle on a timer.
type Engine struct {
	chain   FullChainClient
	store   FullStore
	metrics CycleMetrics
	logger  *zap.Logger
	status  *syncstatus.Publisher
	cfg     Config

	exec *executor

	running atomic.Bool

	rateWindow rateTracker
}

// New constructs an Engine.
func New(chainClient FullChainClient, store FullStore, metrics CycleMetrics, logger *zap.Logger, status *syncstatus.Publisher, watched map[string]struct{}, cfg Config) *Engine {
	return &Engine{
		chain:   chainClient,
		store:   store,
		metrics: metrics,
		logger:  logger.Named("sync_engine"),
		status:  status,
		cfg:     cfg,
		exec:    newExecutor(chainClient, store, metrics, logger, watched, cfg.BatchSize),
	}
}

// Run blocks, executing cycles until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := e.runCycle(ctx); err != nil && ctx.Err() == nil {
			e.logger.Error("cycle failed", zap.Error(err))
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := clock.SleepWithContext(ctx, e.cfg.CycleInterval); err != nil {
			return nil
		}
	}
}

// TriggerResult reports whether an out-of-band sync request actually
// started a cycle.
type TriggerResult struct {
	Started bool
	Message string
}

// TriggerSync runs one cycle immediately, out of band from the regular
// interval timer. It is idempotent: a request arriving while a cycle is
// already in flight returns Started=false with no error, rather than
// queuing or failing.
func (e *Engine) TriggerSync(ctx context.Context) (TriggerResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		return TriggerResult{Started: false, Message: "already running"}, nil
	}
	err := e.runCycleLocked(ctx)
	return TriggerResult{Started: true, Message: "sync triggered"}, err
}

// runCycle executes one plan/fetch/analyze/commit pass, followed by gap
// detection when the index is near completion and a retention sweep.
// It refuses to run concurrently with itself; a caller invoking runCycle
// while a previous call is still in flight observes a no-op.
func (e *Engine) runCycle(ctx context.Context) (err error) {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Debug("cycle already running, skipping")
		return nil
	}
	return e.runCycleLocked(ctx)
}

// runCycleLocked runs the cycle body. Callers must hold e.running (set via
// CompareAndSwap) before calling it.
func (e *Engine) runCycleLocked(ctx context.Context) (err error) {
	defer e.running.Store(false)

	cycleStart := time.Now()
	defer func() { e.metrics.ObserveCycle(err, cycleStart) }()

	tip, err := e.chain.Tip(ctx)
	if err != nil {
		return fmt.Errorf("fetch tip: %w", err)
	}

	frontier, err := e.store.MinMaxHeights(ctx)
	if err != nil {
		return fmt.Errorf("read frontier: %w", err)
	}

	targetLowest := saturatingSub(tip, e.cfg.BlocksPerDay*e.cfg.RetentionDays)
	initialSyncTarget := saturatingSub(tip, e.cfg.BlocksPerDay)

	status := deriveSyncStatus(frontier, tip, targetLowest, initialSyncTarget)
	status.IsRunning = true
	status.LastCycleAt = cycleStart

	planInput := derivePlanInput(frontier, tip, targetLowest, initialSyncTarget, e.cfg.BudgetPerCycle)
	plan := BuildPlan(planInput)

	if plan.BlocksToSync() == 0 && !plan.RequiresGapFill {
		status.LastSyncMessage = "up to date, nothing to sync"
		e.publishStatus(status, cycleStart)
		return nil
	}

	var totalOutcome BatchOutcome
	var doneBeforePhase uint64
	for _, phase := range plan.Phases {
		phaseTotal := uint64(len(phase.Heights()))
		outcome, err := e.exec.RunPhase(ctx, phase, func(done, total uint64) {
			e.rateWindow.record(doneBeforePhase+done, time.Since(cycleStart))
			status.SyncRateBlocksPerSec = e.rateWindow.rate()
			status.LastSyncMessage = fmt.Sprintf("%s: %d/%d", phase.Direction, done, phaseTotal)
			e.publishStatus(status, cycleStart)
		})
		totalOutcome.BlocksFetched += outcome.BlocksFetched
		totalOutcome.BlocksFailed += outcome.BlocksFailed
		totalOutcome.Transactions += outcome.Transactions
		totalOutcome.SendersResolved += outcome.SendersResolved
		doneBeforePhase += phaseTotal
		if err != nil {
			status.LastSyncMessage = fmt.Sprintf("phase failed: %v", err)
			e.publishStatus(status, cycleStart)
			return fmt.Errorf("run phase %s: %w", phase.Direction, err)
		}
	}

	if plan.RequiresGapFill {
		if err := e.runGapFill(ctx, tip, frontier); err != nil {
			e.logger.Warn("gap fill failed", zap.Error(err))
		}
	}

	if e.cfg.RetentionDays > 0 {
		if err := e.runRetention(ctx, tip); err != nil {
			e.logger.Warn("retention sweep failed", zap.Error(err))
		}
	}

	status.LastSyncMessage = fmt.Sprintf("synced %d blocks, %d payments, %d senders resolved",
		totalOutcome.BlocksFetched, totalOutcome.Transactions, totalOutcome.SendersResolved)
	e.publishStatus(status, cycleStart)
	return nil
}

func (e *Engine) publishStatus(status model.SyncStatus, cycleStart time.Time) {
	status.LastCycleAt = cycleStart
	e.status.Publish(status)
}

// runGapFill detects and backfills holes in two windows: a recent window
// near the tip and a historical window near the retained floor. It is
// only invoked once a cycle's forward/backward plan has the index within
// GapFillProgressThreshold of complete.
func (e *Engine) runGapFill(ctx context.Context, tip uint64, frontier clickhouse.Frontier) error {
	recentStart := saturatingSub(tip, e.cfg.BlocksPerDay*gapFillRecentWindowDays)
	missingRecent, err := e.store.MissingHeights(ctx, recentStart, tip)
	if err != nil {
		return fmt.Errorf("missing heights (recent): %w", err)
	}

	historicalEnd := frontier.Lowest
	historicalStart := saturatingSub(historicalEnd, e.cfg.BlocksPerDay*gapFillHistoricalWindowDays)
	var missingHistorical []uint64
	if frontier.HasAny && historicalEnd > 0 {
		missingHistorical, err = e.store.MissingHeights(ctx, historicalStart, historicalEnd)
		if err != nil {
			return fmt.Errorf("missing heights (historical): %w", err)
		}
	}

	gaps := append(missingRecent, missingHistorical...)
	if len(gaps) == 0 {
		return nil
	}

	e.logger.Info("gap fill: backfilling missing heights", zap.Int("count", len(gaps)))
	_, err = e.exec.RunHeights(ctx, "gap_fill", gaps, nil)
	return err
}

// runRetention prunes rows older than RetentionDays, computed against
// the chain's tip timestamp rather than wall-clock time, matching the
// block-indexed nature of the rest of the schema. This keeps the cutoff
// correct while backfilling a chain whose tip is far behind wall-clock.
func (e *Engine) runRetention(ctx context.Context, tip uint64) error {
	retentionBlocks := e.cfg.RetentionDays * e.cfg.BlocksPerDay
	if retentionBlocks == 0 || retentionBlocks >= tip {
		return nil
	}
	tipTimestamp, err := e.tipTimestamp(ctx, tip)
	if err != nil {
		return fmt.Errorf("fetch tip timestamp: %w", err)
	}
	cutoffTs := tipTimestamp - int64(e.cfg.RetentionDays)*secondsPerDay
	return e.store.PruneBelow(ctx, cutoffTs)
}

// tipTimestamp fetches the timestamp of the block at height, relying on
// the Chain Client's block cache to make repeated calls for the same tip
// across a cycle cheap.
func (e *Engine) tipTimestamp(ctx context.Context, height uint64) (int64, error) {
	results := e.chain.FetchBlocks(ctx, []uint64{height})
	if len(results) == 0 {
		return 0, fmt.Errorf("no result for height %d", height)
	}
	if results[0].Err != nil {
		return 0, results[0].Err
	}
	return results[0].Body.Timestamp, nil
}

// BackfillSenders drains up to limit transactions with an unresolved
// sender, resolves each against the Chain Client, and writes the result
// back through a rate-limited Batcher so write-back does not spike load
// on the store.
func (e *Engine) BackfillSenders(ctx context.Context, limit uint64) (resolved int, err error) {
	pending, err := e.store.MissingSenderTransactions(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list missing sender transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var resolvedCount int
	flush := func(ctx context.Context, items []senderBackfillItem) error {
		for _, item := range items {
			if err := e.store.BackfillSender(ctx, item.Key, item.Address); err != nil {
				return fmt.Errorf("backfill sender for %s:%d: %w", item.Key.TxHash, item.Key.VoutIndex, err)
			}
			resolvedCount++
		}
		return nil
	}

	b := batcher.New(e.logger, flush, 100, time.Second, senderResolveConcurrencyCap)
	b.Start(ctx)

	for _, tx := range pending {
		if tx.Sender.Kind != model.SenderUnresolved {
			continue
		}
		address, err := e.chain.ResolveSender(ctx, tx.Sender.TxID, tx.Sender.Vout)
		if err != nil {
			e.logger.Warn("sender resolution failed during backfill", zap.Error(err))
			continue
		}
		if err := b.Add(ctx, senderBackfillItem{Key: tx.Key(), Address: address}); err != nil {
			break
		}
	}
	b.Stop()

	return resolvedCount, nil
}

type senderBackfillItem struct {
	Key     model.TransactionKey
	Address string
}
