package syncengine

import (
	"reflect"
	"testing"
)

func TestBuildPlan_FreshIndexPlansForwardFromGenesis(t *testing.T) {
	plan := BuildPlan(PlanInput{
		Tip:               1_000_000,
		HasHighestSynced:  false,
		InitialSyncTarget: 0,
		TargetLowest:      0,
		Budget:            2000,
	})

	if plan.Priority != PriorityInitial {
		t.Fatalf("priority = %q, want initial", plan.Priority)
	}
	want := []Phase{{Direction: DirectionForward, StartHeight: 0, EndHeight: 1999}}
	if !reflect.DeepEqual(plan.Phases, want) {
		t.Fatalf("phases = %+v, want %+v", plan.Phases, want)
	}
	if plan.BlocksToSync() != 2000 {
		t.Fatalf("blocks to sync = %d, want 2000", plan.BlocksToSync())
	}
}

func TestBuildPlan_HybridSplitsBudgetForwardThenBackward(t *testing.T) {
	plan := BuildPlan(PlanInput{
		Tip:              1_000_000,
		HasHighestSynced: true,
		HighestSynced:    999_500,
		HasLowestSynced:  true,
		LowestSynced:     500_000,
		TargetLowest:     0,
		Budget:           1000,
		ProgressPct:      50,
	})

	if plan.Priority != PriorityHybrid {
		t.Fatalf("priority = %q, want hybrid", plan.Priority)
	}
	if len(plan.Phases) != 2 {
		t.Fatalf("phases = %+v, want 2 phases", plan.Phases)
	}
	forward := plan.Phases[0]
	if forward.Direction != DirectionForward || forward.StartHeight != 999_501 || forward.EndHeight != 1_000_000 {
		t.Fatalf("forward phase = %+v", forward)
	}
	backward := plan.Phases[1]
	if backward.Direction != DirectionBackward || backward.Count() != 500 || backward.EndHeight != 499_999 {
		t.Fatalf("backward phase = %+v", backward)
	}
	if plan.BlocksToSync() != 1000 {
		t.Fatalf("blocks to sync = %d, want 1000", plan.BlocksToSync())
	}
}

func TestBuildPlan_HybridForwardOnlyWhenNoHistoricalGap(t *testing.T) {
	plan := BuildPlan(PlanInput{
		Tip:              1_000_100,
		HasHighestSynced: true,
		HighestSynced:    999_500,
		HasLowestSynced:  true,
		LowestSynced:     0,
		TargetLowest:     0,
		Budget:           1000,
		ProgressPct:      50,
	})

	if len(plan.Phases) != 1 {
		t.Fatalf("phases = %+v, want 1 phase", plan.Phases)
	}
	if plan.Phases[0].Direction != DirectionForward {
		t.Fatalf("phase direction = %q, want forward", plan.Phases[0].Direction)
	}
}

func TestBuildPlan_NearCompletionForwardCapped(t *testing.T) {
	plan := BuildPlan(PlanInput{
		Tip:              2_000_000,
		HasHighestSynced: true,
		HighestSynced:    999_000,
		HasLowestSynced:  true,
		LowestSynced:     0,
		TargetLowest:     0,
		Budget:           100_000,
		ProgressPct:      97,
	})

	if plan.Priority != PriorityNearCompletion || !plan.RequiresGapFill {
		t.Fatalf("plan = %+v, want near-completion requiring gap fill", plan)
	}
	if len(plan.Phases) != 1 {
		t.Fatalf("phases = %+v, want 1 phase", plan.Phases)
	}
	phase := plan.Phases[0]
	if phase.Direction != DirectionForward || phase.Count() != nearCompletionForwardCap {
		t.Fatalf("forward phase = %+v, want count %d", phase, nearCompletionForwardCap)
	}
	if phase.StartHeight != 999_001 {
		t.Fatalf("start height = %d, want 999001", phase.StartHeight)
	}
}

func TestBuildPlan_NearCompletionBackwardCappedWhenCaughtUpForward(t *testing.T) {
	plan := BuildPlan(PlanInput{
		Tip:              1_000_000,
		HasHighestSynced: true,
		HighestSynced:    1_000_000,
		HasLowestSynced:  true,
		LowestSynced:     5_000,
		TargetLowest:     0,
		Budget:           100_000,
		ProgressPct:      96,
	})

	if len(plan.Phases) != 1 {
		t.Fatalf("phases = %+v, want 1 phase", plan.Phases)
	}
	phase := plan.Phases[0]
	if phase.Direction != DirectionBackward || phase.Count() != nearCompletionBackwardCap {
		t.Fatalf("backward phase = %+v, want count %d", phase, nearCompletionBackwardCap)
	}
	if phase.EndHeight != 4_999 {
		t.Fatalf("end height = %d, want 4999", phase.EndHeight)
	}
}

func TestBuildPlan_NearCompletionNoWorkRemainingStillRequiresGapFill(t *testing.T) {
	plan := BuildPlan(PlanInput{
		Tip:              1_000_000,
		HasHighestSynced: true,
		HighestSynced:    1_000_000,
		HasLowestSynced:  true,
		LowestSynced:     0,
		TargetLowest:     0,
		Budget:           1000,
		ProgressPct:      100,
	})

	if len(plan.Phases) != 0 {
		t.Fatalf("phases = %+v, want none", plan.Phases)
	}
	if !plan.RequiresGapFill {
		t.Fatalf("want RequiresGapFill even with no phases")
	}
}

func TestBuildPlan_ZeroBudgetYieldsEmptyPlan(t *testing.T) {
	plan := BuildPlan(PlanInput{Tip: 100, Budget: 0})
	if plan.BlocksToSync() != 0 {
		t.Fatalf("blocks to sync = %d, want 0", plan.BlocksToSync())
	}
}

func TestPhase_HeightsOrdering(t *testing.T) {
	forward := Phase{Direction: DirectionForward, StartHeight: 10, EndHeight: 13}
	if got := forward.Heights(); !reflect.DeepEqual(got, []uint64{10, 11, 12, 13}) {
		t.Fatalf("forward heights = %v", got)
	}

	backward := Phase{Direction: DirectionBackward, StartHeight: 10, EndHeight: 13}
	if got := backward.Heights(); !reflect.DeepEqual(got, []uint64{13, 12, 11, 10}) {
		t.Fatalf("backward heights = %v", got)
	}
}
