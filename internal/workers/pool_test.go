package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsInvalidConcurrency(t *testing.T) {
	for _, limit := range []int{0, -1} {
		var calls int32
		_, err := Run(context.Background(), limit, []int{1, 2}, func(ctx context.Context, item int) (int, error) {
			atomic.AddInt32(&calls, 1)
			return item, nil
		})

		assert.ErrorIs(t, err, ErrInvalidConcurrency)
		assert.Zero(t, atomic.LoadInt32(&calls), "No unit may start with an invalid limit")
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	results, err := Run(context.Background(), 2, items, func(ctx context.Context, item int) (int, error) {
		if item == 3 {
			return 0, errors.New("unit 3 failed")
		}
		return item * 10, nil
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, result := range results {
		if items[i] == 3 {
			assert.EqualError(t, result.Err, "unit 3 failed")
			continue
		}
		assert.NoError(t, result.Err)
		assert.Equal(t, items[i]*10, result.Value)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	results, err := Run(context.Background(), 2, []string{"ok", "boom", "ok"}, func(ctx context.Context, item string) (string, error) {
		if item == "boom" {
			panic("kaboom")
		}
		return item, nil
	})
	require.NoError(t, err)

	assert.NoError(t, results[0].Err)
	assert.ErrorContains(t, results[1].Err, "kaboom")
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "ok", results[2].Value)
}

func TestRunRespectsCeiling(t *testing.T) {
	const limit = 3
	items := make([]int, 20)

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
		calls    int32
	)

	_, err := Run(context.Background(), limit, items, func(ctx context.Context, item int) (struct{}, error) {
		atomic.AddInt32(&calls, 1)

		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return struct{}{}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, int32(len(items)), atomic.LoadInt32(&calls), "Every unit runs exactly once")
	assert.LessOrEqual(t, maxSeen, limit)
	assert.GreaterOrEqual(t, maxSeen, 1)
}

func TestRunLimitAboveItemCount(t *testing.T) {
	results, err := Run(context.Background(), 10, []int{1, 2}, func(ctx context.Context, item int) (int, error) {
		return item + 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Result[int]{{Value: 2}, {Value: 3}}, results)
}

func TestRunNoItems(t *testing.T) {
	results, err := Run(context.Background(), 4, nil, func(ctx context.Context, item int) (int, error) {
		t.Fatal("task must not be called")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}
