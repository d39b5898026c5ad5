package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webetl/internal/worker"
)

func TestMap_CollectsAndDropsEmpty(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6}
	got, err := worker.Map(context.Background(), 3, items, func(_ context.Context, n int) ([]string, error) {
		if n%2 == 0 {
			return nil, nil
		}
		return []string{fmt.Sprint(n), fmt.Sprint(n * 10)}, nil
	})
	require.NoError(t, err)

	sort.Strings(got)
	assert.Equal(t, []string{"1", "10", "3", "30", "5", "50"}, got)
}

func TestMap_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	const limit = 3
	var inFlight, peak atomic.Int64

	items := make([]int, 20)
	_, err := worker.Map(context.Background(), limit, items, func(_ context.Context, _ int) ([]int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int64(limit))
	assert.Positive(t, peak.Load())
}

func TestMap_FatalErrorAborts(t *testing.T) {
	t.Parallel()

	fatal := errors.New("ledger unavailable")
	var calls atomic.Int64

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	_, err := worker.Map(context.Background(), 1, items, func(ctx context.Context, n int) ([]int, error) {
		calls.Add(1)
		if n == 2 {
			return nil, fatal
		}
		return []int{n}, nil
	})
	require.ErrorIs(t, err, fatal)
	assert.Less(t, calls.Load(), int64(len(items)))
}

func TestMap_SkippedErrorsContinue(t *testing.T) {
	t.Parallel()

	got, err := worker.Map(context.Background(), 2, []int{1, 2, 3}, func(_ context.Context, n int) ([]int, error) {
		if n == 2 {
			return nil, worker.Skip(errors.New("404"))
		}
		return []int{n}, nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3}, got)
}

func TestMap_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := worker.Map(ctx, 2, []int{1, 2}, func(_ context.Context, n int) ([]int, error) {
		return []int{n}, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPool_Stats(t *testing.T) {
	t.Parallel()

	pool, err := worker.NewPool(worker.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, worker.DefaultPoolSize, pool.Size())

	_, err = worker.Run(context.Background(), pool, []int{1, 2, 3, 4}, func(_ context.Context, n int) ([]int, error) {
		if n == 4 {
			return nil, worker.Skip(errors.New("soft"))
		}
		return []int{n}, nil
	})
	require.NoError(t, err)

	stats := pool.Stats()
	assert.Equal(t, int64(4), stats.TasksProcessed)
	assert.Equal(t, int64(3), stats.TasksSucceeded)
	assert.Equal(t, int64(1), stats.TasksFailed)
	assert.Equal(t, 0, stats.InFlight)
	assert.InDelta(t, 75.0, stats.SuccessRate(), 0.001)
}

func TestNewPool_InvalidSize(t *testing.T) {
	t.Parallel()

	_, err := worker.NewPool(worker.Config{PoolSize: 0})
	require.Error(t, err)

	_, err = worker.NewPool(worker.Config{PoolSize: worker.MaxPoolSize + 1})
	require.Error(t, err)
}
