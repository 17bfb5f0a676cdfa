package syncengine

import (
	"github.com/fluxrevenue/indexer/internal/model"
	"github.com/fluxrevenue/indexer/internal/store/clickhouse"
)

// derivePlanInput converts the Store's observed frontier and the Chain
// Client's tip into the planner's decision inputs.
func derivePlanInput(frontier clickhouse.Frontier, tip, targetLowest, initialSyncTarget, budget uint64) PlanInput {
	in := PlanInput{
		Tip:               tip,
		HasHighestSynced:  frontier.HasAny,
		HighestSynced:     frontier.Highest,
		HasLowestSynced:   frontier.HasAny,
		LowestSynced:      frontier.Lowest,
		TargetLowest:      targetLowest,
		InitialSyncTarget: initialSyncTarget,
		Budget:            budget,
	}
	in.ProgressPct = progressPercent(frontier, tip, targetLowest)
	return in
}

// progressPercent is the fraction of the [targetLowest, tip] range that
// is already stored, used to decide when a cycle switches from bulk
// catch-up to near-completion gap filling.
func progressPercent(frontier clickhouse.Frontier, tip, targetLowest uint64) float64 {
	if !frontier.HasAny {
		return 0
	}
	if tip < targetLowest {
		return 100
	}
	total := tip - targetLowest + 1
	if total == 0 {
		return 100
	}
	pct := float64(frontier.Count) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// deriveSyncStatus builds the published status snapshot for one cycle.
func deriveSyncStatus(frontier clickhouse.Frontier, tip, targetLowest, initialSyncTarget uint64) model.SyncStatus {
	status := model.SyncStatus{
		CurrentHeight:     tip,
		HasHighestSynced:  frontier.HasAny,
		HighestSynced:     frontier.Highest,
		HasLowestSynced:   frontier.HasAny,
		LowestSynced:      frontier.Lowest,
		TargetLowest:      targetLowest,
		InitialSyncTarget: initialSyncTarget,
		TotalBlocksSynced: frontier.Count,
		IsFirstRun:        !frontier.HasAny,
		IsOnline:          true,
	}

	if tip >= frontier.Highest {
		status.NewBlocksRemaining = saturatingSub(tip, frontier.Highest)
	}
	if frontier.HasAny && frontier.Lowest > targetLowest {
		status.HistoricalBlocksRemaining = frontier.Lowest - targetLowest
	}
	status.TotalBlocksRemaining = status.NewBlocksRemaining + status.HistoricalBlocksRemaining
	status.SyncProgressPct = progressPercent(frontier, tip, targetLowest)
	status.HasCompletedInitialSync = status.SyncProgressPct >= GapFillProgressThreshold

	return status
}
