package syncengine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fluxrevenue/indexer/internal/analyzer"
	"github.com/fluxrevenue/indexer/internal/chain"
	"github.com/fluxrevenue/indexer/internal/model"
	"github.com/fluxrevenue/indexer/pkg/workerpool"
)

// ChainClient is the subset of the Chain Client the executor depends on.
type ChainClient interface {
	FetchBlocks(ctx context.Context, heights []uint64) []chain.FetchResult
	ResolveSender(ctx context.Context, prevTxHash string, vout uint32) (string, error)
}

// Store is the subset of the Store the executor depends on.
type Store interface {
	BatchInsert(ctx context.Context, blocks []model.Block, transactions []model.Transaction) error
}

// Metrics records the outcome of one executed batch.
type Metrics interface {
	ObserveBatch(direction string, blocks int, err error)
}

type noopMetrics struct{}

func (noopMetrics) ObserveBatch(direction string, blocks int, err error) {}

// BatchOutcome summarizes one executed batch, used for progress
// publishing and rate tracking.
type BatchOutcome struct {
	HeightsRequested int
	BlocksFetched    int
	BlocksFailed     int
	Transactions     int
	SendersResolved  int
}

// ProgressFunc is invoked after every executed batch with the running
// totals for the phase.
type ProgressFunc func(done, total uint64)

// executor runs plan phases against injected chain and store
// dependencies, converting fetched block bodies into stored payments.
type executor struct {
	chain   ChainClient
	store   Store
	metrics Metrics
	logger  *zap.Logger
	watched map[string]struct{}

	batchSize                uint64
	senderResolveConcurrency int
}

func newExecutor(chainClient ChainClient, store Store, metrics Metrics, logger *zap.Logger, watched map[string]struct{}, batchSize uint64) *executor {
	if batchSize == 0 {
		batchSize = 50
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &executor{
		chain:                    chainClient,
		store:                    store,
		metrics:                  metrics,
		logger:                   logger.Named("executor"),
		watched:                  watched,
		batchSize:                batchSize,
		senderResolveConcurrency: senderResolveConcurrencyCap,
	}
}

// RunPhase executes every height in phase in ordered batches of
// e.batchSize, reporting progress every progressPublishEveryNBatches
// batches and always once more at phase end.
func (e *executor) RunPhase(ctx context.Context, phase Phase, progress ProgressFunc) (BatchOutcome, error) {
	return e.RunHeights(ctx, string(phase.Direction), phase.Heights(), progress)
}

// RunHeights executes an arbitrary, not-necessarily-contiguous list of
// heights in ordered batches, used directly by gap fill where the
// missing heights rarely form one contiguous range. direction is only
// used to label the batch metric.
func (e *executor) RunHeights(ctx context.Context, direction string, heights []uint64, progress ProgressFunc) (BatchOutcome, error) {
	var total BatchOutcome
	total.HeightsRequested = len(heights)

	batchesDone := 0
	var done uint64
	for start := 0; start < len(heights); start += int(e.batchSize) {
		end := start + int(e.batchSize)
		if end > len(heights) {
			end = len(heights)
		}
		batch := heights[start:end]

		outcome, err := e.runBatch(ctx, batch)
		e.metrics.ObserveBatch(direction, outcome.BlocksFetched, err)
		total.BlocksFetched += outcome.BlocksFetched
		total.BlocksFailed += outcome.BlocksFailed
		total.Transactions += outcome.Transactions
		total.SendersResolved += outcome.SendersResolved
		if err != nil {
			return total, fmt.Errorf("run batch at heights[%d:%d]: %w", start, end, err)
		}

		done += uint64(len(batch))
		batchesDone++
		if progress != nil && batchesDone%progressPublishEveryNBatches == 0 {
			progress(done, uint64(len(heights)))
		}

		if err := ctx.Err(); err != nil {
			return total, err
		}
	}

	if progress != nil {
		progress(done, uint64(len(heights)))
	}
	return total, nil
}

func (e *executor) runBatch(ctx context.Context, heights []uint64) (BatchOutcome, error) {
	var outcome BatchOutcome

	fetched := e.chain.FetchBlocks(ctx, heights)

	var blocks []model.Block
	var payments []model.Transaction
	now := time.Now().Unix()

	for _, f := range fetched {
		if f.Err != nil {
			outcome.BlocksFailed++
			e.logger.Warn("block fetch failed", zap.Uint64("height", f.Height), zap.Error(f.Err))
			continue
		}
		outcome.BlocksFetched++

		blocks = append(blocks, model.Block{
			Height:    f.Body.Height,
			Hash:      f.Body.Hash,
			Timestamp: f.Body.Timestamp,
			SyncedAt:  now,
		})

		payments = append(payments, analyzer.Analyze(f.Body, e.watched)...)
	}

	resolved, sendersResolved := e.resolveSenders(ctx, payments)
	outcome.SendersResolved = sendersResolved
	outcome.Transactions = len(resolved)

	if err := e.store.BatchInsert(ctx, blocks, resolved); err != nil {
		return outcome, fmt.Errorf("batch insert: %w", err)
	}
	return outcome, nil
}

// resolveSenders fills in FromAddress for every payment whose sender is
// still Unresolved, fanning out up to senderResolveConcurrency lookups at
// a time. Payments that are already resolved or unknown pass through
// unchanged.
func (e *executor) resolveSenders(ctx context.Context, payments []model.Transaction) ([]model.Transaction, int) {
	var pending []int
	for i, p := range payments {
		if p.Sender.Kind == model.SenderUnresolved {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return payments, 0
	}

	results := workerpool.ProcessOrdered(ctx, e.senderResolveConcurrency, pending, func(ctx context.Context, idx int) (string, error) {
		ref := payments[idx].Sender
		return e.chain.ResolveSender(ctx, ref.TxID, ref.Vout)
	})

	resolvedCount := 0
	for _, r := range results {
		if r.Err != nil {
			e.logger.Warn("sender resolution failed", zap.Int("payment_index", r.Item), zap.Error(r.Err))
			continue
		}
		payments[r.Item].FromAddress = r.Value
		if r.Value != chain.UnknownAddress {
			resolvedCount++
		}
	}
	return payments, resolvedCount
}
