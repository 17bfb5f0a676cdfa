package syncengine

// Direction is the height ordering of one sync phase.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// Priority labels why a plan was produced, for logging and metrics.
type Priority string

const (
	PriorityInitial        Priority = "initial"
	PriorityHybrid         Priority = "hybrid"
	PriorityNearCompletion Priority = "near_completion"
)

// Phase is one ordered, contiguous range of heights to sync in one
// direction.
type Phase struct {
	Direction   Direction
	StartHeight uint64
	EndHeight   uint64 // inclusive
}

// Heights returns the phase's height list in execution order: ascending
// for forward, descending for backward.
func (p Phase) Heights() []uint64 {
	if p.StartHeight > p.EndHeight {
		return nil
	}
	count := p.EndHeight - p.StartHeight + 1
	heights := make([]uint64, count)
	if p.Direction == DirectionBackward {
		for i := range heights {
			heights[i] = p.EndHeight - uint64(i)
		}
		return heights
	}
	for i := range heights {
		heights[i] = p.StartHeight + uint64(i)
	}
	return heights
}

// Count is the number of heights covered by the phase.
func (p Phase) Count() uint64 {
	if p.StartHeight > p.EndHeight {
		return 0
	}
	return p.EndHeight - p.StartHeight + 1
}

// Plan is the outcome of one cycle's planning step: an ordered list of
// phases (forward always precedes backward within a hybrid plan) plus
// whether the cycle should run gap detection afterward.
type Plan struct {
	Phases          []Phase
	Priority        Priority
	RequiresGapFill bool
}

// BlocksToSync is the total height count across every phase.
func (p Plan) BlocksToSync() uint64 {
	var total uint64
	for _, ph := range p.Phases {
		total += ph.Count()
	}
	return total
}

// PlanInput is the derived sync status the planner decides from.
type PlanInput struct {
	Tip               uint64
	HasHighestSynced  bool
	HighestSynced     uint64
	HasLowestSynced   bool
	LowestSynced      uint64
	TargetLowest      uint64
	InitialSyncTarget uint64
	Budget            uint64
	ProgressPct       float64
}

// BuildPlan computes the next cycle's plan per §4.4: first-run,
// near-completion, or hybrid forward+backward allocation.
func BuildPlan(in PlanInput) Plan {
	if in.Budget == 0 {
		return Plan{}
	}

	// Plan arithmetic underflow (lowest missing) defaults to first run.
	if !in.HasHighestSynced {
		return buildFirstRunPlan(in)
	}

	if in.ProgressPct >= GapFillProgressThreshold {
		return buildNearCompletionPlan(in)
	}

	return buildHybridPlan(in)
}

func buildFirstRunPlan(in PlanInput) Plan {
	start := in.InitialSyncTarget
	end := in.Tip
	if start > end {
		return Plan{Priority: PriorityInitial}
	}
	if end-start+1 > in.Budget {
		end = start + in.Budget - 1
	}
	return Plan{
		Phases:   []Phase{{Direction: DirectionForward, StartHeight: start, EndHeight: end}},
		Priority: PriorityInitial,
	}
}

func buildNearCompletionPlan(in PlanInput) Plan {
	newRemaining := saturatingSub(in.Tip, in.HighestSynced)
	if newRemaining > 0 {
		capped := min3(in.Budget, nearCompletionForwardCap, newRemaining)
		start := in.HighestSynced + 1
		end := start + capped - 1
		return Plan{
			Phases:          []Phase{{Direction: DirectionForward, StartHeight: start, EndHeight: end}},
			Priority:        PriorityNearCompletion,
			RequiresGapFill: true,
		}
	}

	var historicalRemaining uint64
	if in.HasLowestSynced {
		historicalRemaining = saturatingSub(in.LowestSynced, in.TargetLowest)
	}
	if historicalRemaining > 0 && in.LowestSynced > 0 {
		capped := min3(in.Budget, nearCompletionBackwardCap, historicalRemaining)
		end := in.LowestSynced - 1
		start := end - capped + 1
		if start < in.TargetLowest {
			start = in.TargetLowest
		}
		return Plan{
			Phases:          []Phase{{Direction: DirectionBackward, StartHeight: start, EndHeight: end}},
			Priority:        PriorityNearCompletion,
			RequiresGapFill: true,
		}
	}

	return Plan{Priority: PriorityNearCompletion, RequiresGapFill: true}
}

func buildHybridPlan(in PlanInput) Plan {
	var phases []Phase
	remainingBudget := in.Budget

	newRemaining := saturatingSub(in.Tip, in.HighestSynced)
	if newRemaining > 0 && remainingBudget > 0 {
		count := min64(remainingBudget, newRemaining)
		start := in.HighestSynced + 1
		end := start + count - 1
		phases = append(phases, Phase{Direction: DirectionForward, StartHeight: start, EndHeight: end})
		remainingBudget -= count
	}

	var historicalRemaining uint64
	if in.HasLowestSynced {
		historicalRemaining = saturatingSub(in.LowestSynced, in.TargetLowest)
	}
	if historicalRemaining > 0 && remainingBudget > 0 && in.LowestSynced > 0 {
		count := min64(remainingBudget, historicalRemaining)
		end := in.LowestSynced - 1
		start := end - count + 1
		if start < in.TargetLowest {
			start = in.TargetLowest
		}
		phases = append(phases, Phase{Direction: DirectionBackward, StartHeight: start, EndHeight: end})
	}

	return Plan{Phases: phases, Priority: PriorityHybrid}
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func min3(a, b, c uint64) uint64 {
	return min64(min64(a, b), c)
}
