package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/storage"
)

// JobSource compiles the jobs to run. A non-empty name selects one source.
type JobSource interface {
	Load(name string) ([]domain.Job, error)
}

// Stage is a day-scoped downstream stage such as transform or load.
type Stage interface {
	Run(ctx context.Context, day string) (int, error)
}

// Runner chains extract, transform and load for one day.
type Runner struct {
	sources     JobSource
	extractor   *Extractor
	transformer Stage
	loader      Stage
	logger      logger.Logger
	now         func() time.Time
}

// NewRunner creates a runner. The extractor's clock also picks the day.
func NewRunner(sources JobSource, extractor *Extractor, transformer, loader Stage, log logger.Logger) *Runner {
	return &Runner{
		sources:     sources,
		extractor:   extractor,
		transformer: transformer,
		loader:      loader,
		logger:      log,
		now:         extractor.now,
	}
}

// Run loads the jobs, extracts them, then transforms and loads the day's output.
func (r *Runner) Run(ctx context.Context, name string) error {
	jobs, err := r.sources.Load(name)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	day := storage.Day(r.now())
	if _, err := r.extractor.RunDay(ctx, day, jobs); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	for _, stage := range []struct {
		name  string
		stage Stage
	}{
		{name: "transform", stage: r.transformer},
		{name: "load", stage: r.loader},
	} {
		n, err := stage.stage.Run(ctx, day)
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Info("nothing to "+stage.name, logger.String("date", day))
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", stage.name, err)
		}
		r.logger.Info(stage.name+" stage finished", logger.String("date", day), logger.Int("written", n))
	}

	return nil
}
