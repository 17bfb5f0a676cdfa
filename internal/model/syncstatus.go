package model

import "time"

// SyncStatus is the derived, non-persistent view of synchronization
// progress, computed from the Store's block frontier and the Chain
// Client's current tip.
type SyncStatus struct {
	CurrentHeight             uint64
	HighestSynced             uint64
	HasHighestSynced          bool
	LowestSynced              uint64
	HasLowestSynced           bool
	TargetLowest              uint64
	InitialSyncTarget         uint64
	TotalBlocksSynced         uint64
	TotalBlocksRemaining      uint64
	NewBlocksRemaining        uint64
	HistoricalBlocksRemaining uint64
	SyncProgressPct           float64
	IsOnline                  bool
	IsFirstRun                bool
	HasCompletedInitialSync   bool
	LastSyncMessage           string
	SyncRateBlocksPerSec      float64
	EstimatedTimeRemaining    time.Duration
	IsRunning                 bool
	LastCycleAt               time.Time
}
