package syncengine

import (
	"sync"
	"time"
)

// rateTracker computes a smoothed blocks-per-second figure from the
// cumulative done count and elapsed time of the current cycle.
type rateTracker struct {
	mu      sync.Mutex
	done    uint64
	elapsed time.Duration
}

func (t *rateTracker) record(done uint64, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = done
	t.elapsed = elapsed
}

func (t *rateTracker) rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.elapsed <= 0 {
		return 0
	}
	return float64(t.done) / t.elapsed.Seconds()
}
