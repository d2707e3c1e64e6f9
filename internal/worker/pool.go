// Package worker runs one function over a list of inputs with a fixed
// number of goroutines, collecting one result per input in input order.
package worker

import (
	"context"
	"fmt"
	"sync"
)

// Result holds the outcome for a single input. Exactly one of Value or
// Err is meaningful.
type Result[R any] struct {
	Value R
	Err   error
}

// Execute calls fn once per item using at most workers concurrent
// invocations. Results are written into a slot array indexed by the
// item's input position, so the returned slice always corresponds to
// the input ordering regardless of completion order. A failing item
// never stops the others; its failure is recorded in its slot. The
// slice is returned only once every item has a result or failure.
//
// When ctx is cancelled, items not yet started record ctx.Err() and
// running invocations are left to observe the cancellation themselves.
func Execute[A, R any](ctx context.Context, workers int, fn func(context.Context, A) (R, error), items []A) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if workers > len(items) {
		workers = len(items)
	}
	if workers < 1 {
		workers = 1
	}

	queue := make(chan int, len(items))
	for i := range items {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if err := ctx.Err(); err != nil {
					results[i] = Result[R]{Err: err}
					continue
				}
				results[i] = run(ctx, fn, items[i])
			}
		}()
	}
	wg.Wait()

	return results
}

// run executes one item, converting a panic into a recorded failure so
// a single bad item cannot take down the pool.
func run[A, R any](ctx context.Context, fn func(context.Context, A) (R, error), item A) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Err: fmt.Errorf("panic during work item: %v", r)}
		}
	}()
	value, err := fn(ctx, item)
	return Result[R]{Value: value, Err: err}
}
