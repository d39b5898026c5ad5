// Package scheduler runs the pipeline on a cron schedule. Runs never overlap:
// a tick that fires while a run is still going is skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/webetl/internal/logger"
)

// ErrInvalidSchedule is returned for a cron expression that does not parse.
var ErrInvalidSchedule = errors.New("invalid schedule")

// RunFunc is one pipeline run.
type RunFunc func(ctx context.Context) error

// Stats summarizes the runs so far.
type Stats struct {
	Runs      int64
	Failures  int64
	LastRun   time.Time
	LastError string
}

// Scheduler triggers a RunFunc on a cron schedule.
type Scheduler struct {
	logger   logger.Logger
	cron     *cron.Cron
	schedule cron.Schedule
	job      cron.Job
	run      RunFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	stats Stats
}

// New parses spec as a standard 5-field cron expression (minute hour day
// month weekday) and prepares a scheduler for run.
func New(spec string, run RunFunc, log logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}

	cronLog := cronLogger{logger: log}
	s := &Scheduler{
		logger:   log,
		cron:     cron.New(cron.WithParser(parser), cron.WithLogger(cronLog)),
		schedule: schedule,
		run:      run,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.job = cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).Then(cron.FuncJob(s.tick))

	return s, nil
}

// Start begins scheduling. Runs are canceled when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Schedule(s.schedule, s.job)
	s.cron.Start()

	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()

	s.logger.Info("scheduler started", logger.Time("next_run", s.Next()))
}

// Stop cancels any in-flight run and waits for it to return, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	stopped := s.cron.Stop()

	select {
	case <-stopped.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Trigger runs the job immediately, unless a run is already in progress.
func (s *Scheduler) Trigger() {
	s.job.Run()
}

// Next returns the next scheduled time after now.
func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(time.Now())
}

// Stats returns a snapshot of the run counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Scheduler) tick() {
	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	s.logger.Info("scheduled run started")
	err := s.run(s.ctx)

	s.mu.Lock()
	s.stats.Runs++
	s.stats.LastRun = start
	if err != nil {
		s.stats.Failures++
		s.stats.LastError = err.Error()
	} else {
		s.stats.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled run failed", logger.Error(err), logger.Duration("elapsed", time.Since(start)))
		return
	}
	s.logger.Info("scheduled run finished",
		logger.Duration("elapsed", time.Since(start)),
		logger.Time("next_run", s.Next()),
	)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	logger logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(keysAndValues []any) []logger.Field {
	out := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		out = append(out, logger.Any(key, keysAndValues[i+1]))
	}
	return out
}
