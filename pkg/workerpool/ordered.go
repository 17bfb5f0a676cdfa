package workerpool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Result pairs one input item with the outcome of processing it.
type Result[T any, R any] struct {
	Item  T
	Value R
	Err   error
}

// ProcessOrdered runs process over every item using up to workerCount
// concurrent workers and returns one Result per item, in input order. A
// failing item does not cancel its siblings: every item is given a
// chance to run (subject to ctx cancellation), matching a
// Promise.allSettled fan-out rather than a fail-fast pool.
func ProcessOrdered[T any, R any](
	ctx context.Context,
	workerCount int,
	items []T,
	process func(context.Context, T) (R, error),
) []Result[T, R] {
	results := make([]Result[T, R], len(items))
	if len(items) == 0 {
		return results
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(items) {
		workerCount = len(items)
	}

	sem := semaphore.NewWeighted(int64(workerCount))
	var wg sync.WaitGroup
	for idx := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[idx] = Result[T, R]{Item: items[idx], Err: err}
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)
			value, err := process(ctx, items[idx])
			results[idx] = Result[T, R]{Item: items[idx], Value: value, Err: err}
		}(idx)
	}
	wg.Wait()
	return results
}
