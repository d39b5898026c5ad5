package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/scheduler"
)

func TestNew_InvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := scheduler.New("every now and then", func(context.Context) error { return nil }, logger.NewNop())
	require.ErrorIs(t, err, scheduler.ErrInvalidSchedule)

	s, err := scheduler.New("@daily", func(context.Context) error { return nil }, logger.NewNop())
	require.NoError(t, err)
	assert.True(t, s.Next().After(time.Now()))
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	core, logs := observer.New(zapcore.DebugLevel)
	s, err := scheduler.New("0 6 * * *", func(context.Context) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}, logger.FromZap(zap.New(core)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Trigger()
	}()

	<-started
	s.Trigger()
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int64(1), s.Stats().Runs)
	assert.NotEmpty(t, logs.FilterMessage("cron: skip").All())
}

func TestScheduler_RecordsFailures(t *testing.T) {
	t.Parallel()

	s, err := scheduler.New("0 6 * * *", func(context.Context) error {
		return errors.New("ledger unavailable")
	}, logger.NewNop())
	require.NoError(t, err)

	s.Trigger()
	s.Trigger()

	stats := s.Stats()
	assert.Equal(t, int64(2), stats.Runs)
	assert.Equal(t, int64(2), stats.Failures)
	assert.Equal(t, "ledger unavailable", stats.LastError)
	assert.False(t, stats.LastRun.IsZero())
}

func TestScheduler_StopCancelsRuns(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s, err := scheduler.New("0 6 * * *", func(context.Context) error {
		runs.Add(1)
		return nil
	}, logger.NewNop())
	require.NoError(t, err)

	s.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	s.Trigger()
	assert.Zero(t, runs.Load(), "no runs after stop")
}
