package pool

import (
	"context"
	"sync"
)

// WorkerFunc processes one item and returns its result.
type WorkerFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Result pairs an input item with the outcome of processing it.
type Result[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Run processes items concurrently with numWorkers goroutines.
// Results are returned in input order. Items that were never started because
// ctx was cancelled carry ctx's error.
func Run[T, R any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T, R]) []Result[T, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}

	results := make([]Result[T, R], len(items))
	started := make([]bool, len(items))
	indexChan := make(chan int, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexChan {
				if ctx.Err() != nil {
					continue
				}
				started[idx] = true
				value, err := workerFunc(ctx, items[idx])
				results[idx] = Result[T, R]{Item: items[idx], Value: value, Err: err}
			}
		}()
	}

OUT:
	for idx := range items {
		select {
		case indexChan <- idx:
		case <-ctx.Done():
			break OUT
		}
	}
	close(indexChan)
	wg.Wait()

	for idx := range items {
		if !started[idx] {
			results[idx] = Result[T, R]{Item: items[idx], Err: context.Cause(ctx)}
		}
	}
	return results
}

// Errors collects the non-nil errors of results.
func Errors[T, R any](results []Result[T, R]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
