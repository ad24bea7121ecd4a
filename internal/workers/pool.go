package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/panjf2000/ants/v2"
)

// ErrInvalidConcurrency is returned when the concurrency ceiling is below one
var ErrInvalidConcurrency = errors.New("concurrency limit must be at least 1")

// Result holds the outcome of one unit of work
type Result[O any] struct {
	Value O
	Err   error
}

// Task is a single unit of work run by the pool
type Task[I, O any] func(ctx context.Context, item I) (O, error)

// Run executes task once for every item with at most limit units in flight
// and returns once all of them have settled. A failing or panicking unit is
// recorded in its own Result and never affects its siblings. Results are
// indexed like items.
func Run[I, O any](ctx context.Context, limit int, items []I, task Task[I, O]) ([]Result[O], error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, limit)
	}

	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results, nil
	}

	if limit > len(items) {
		limit = len(items)
	}

	pool, err := ants.NewPool(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)

		// Submit blocks while all workers are busy
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = runUnit(ctx, items[i], task)
		})
		if err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("failed to schedule unit %d: %w", i, err)
		}
	}

	wg.Wait()
	return results, nil
}

func runUnit[I, O any](ctx context.Context, item I, task Task[I, O]) (result Result[O]) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", fmt.Sprint(r)).Error("Worker unit panicked")
			result = Result[O]{Err: fmt.Errorf("unit panicked: %v", r)}
		}
	}()

	value, err := task(ctx, item)
	return Result[O]{Value: value, Err: err}
}
