// Package workerpool provides simple concurrent processing utilities.
package workerpool

import (
	"context"
	"sync"
)

// Map runs fn over items with at most workerCount concurrent calls and returns
// the results in input order. A failing item does not stop the others; fn
// reports per-item failures through R. If ctx ends before every item has been
// dispatched, the undispatched results are left zero and ctx's error is returned.
func Map[T, R any](
	ctx context.Context,
	workerCount int,
	items []T,
	fn func(context.Context, T) R,
) ([]R, error) {
	if workerCount <= 0 {
		workerCount = 1
	}
	results := make([]R, len(items))

	type task struct {
		index int
		item  T
	}
	tasks := make(chan task, workerCount)
	wg := sync.WaitGroup{}
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				results[t.index] = fn(ctx, t.item)
			}
		}()
	}

	var dispatchErr error
dispatch:
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}
		select {
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		case tasks <- task{index: i, item: item}:
		}
	}
	close(tasks)
	wg.Wait()

	return results, dispatchErr
}
