package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrSkipped marks a task failure that is counted but does not abort the batch.
var ErrSkipped = errors.New("task skipped")

// percentageMultiplier converts ratio to percentage.
const percentageMultiplier = 100

// Skip wraps err so the pool records a failed task and keeps going.
func Skip(err error) error {
	return fmt.Errorf("%w: %w", ErrSkipped, err)
}

// Map runs fn over items with at most limit calls in flight. Results are
// collected in completion order. A skipped task contributes nothing; any other
// error cancels the remaining tasks and is returned.
func Map[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) ([]R, error)) ([]R, error) {
	return run(ctx, limit, items, fn, nil)
}

// Pool is a fixed-size task pool that keeps running statistics.
type Pool struct {
	config Config

	inFlight  atomic.Int64
	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a new pool.
func NewPool(cfg Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Pool{config: cfg}, nil
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.config.PoolSize
}

// Run is Map bounded by the pool size, with every task counted in the pool stats.
func Run[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) ([]R, error)) ([]R, error) {
	return run(ctx, p.Size(), items, fn, p)
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		PoolSize:       p.config.PoolSize,
		InFlight:       int(p.inFlight.Load()),
		TasksProcessed: p.processed.Load(),
		TasksSucceeded: p.succeeded.Load(),
		TasksFailed:    p.failed.Load(),
	}
}

func (p *Pool) begin() {
	if p != nil {
		p.inFlight.Add(1)
	}
}

func (p *Pool) finish(err error) {
	if p == nil {
		return
	}
	p.inFlight.Add(-1)
	p.processed.Add(1)
	if err != nil {
		p.failed.Add(1)
	} else {
		p.succeeded.Add(1)
	}
}

// PoolStats holds statistics for the pool.
type PoolStats struct {
	PoolSize       int
	InFlight       int
	TasksProcessed int64
	TasksSucceeded int64
	TasksFailed    int64
}

// SuccessRate returns the success rate as a percentage.
func (s PoolStats) SuccessRate() float64 {
	if s.TasksProcessed == 0 {
		return 0
	}
	return float64(s.TasksSucceeded) / float64(s.TasksProcessed) * percentageMultiplier
}

func run[T, R any](
	ctx context.Context,
	limit int,
	items []T,
	fn func(context.Context, T) ([]R, error),
	stats *Pool,
) ([]R, error) {
	if limit < MinPoolSize {
		limit = MinPoolSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu      sync.Mutex
		results = make([]R, 0, len(items))
	)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			stats.begin()
			out, err := fn(gctx, item)
			stats.finish(err)

			if err != nil {
				if errors.Is(err, ErrSkipped) {
					return nil
				}
				return err
			}

			mu.Lock()
			results = append(results, out...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
