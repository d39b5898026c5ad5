// Package pipeline orchestrates the extract stage: navigation, extraction and
// the raw-layer hand-off for every job of a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/metrics"
	"github.com/jonesrussell/webetl/internal/storage"
)

// Resolver discovers the final URL set of a job.
type Resolver interface {
	Resolve(ctx context.Context, job domain.Job) ([]string, error)
}

// Dispatcher extracts fields from a job's final URLs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job domain.Job, urls []string) (*domain.SourceResult, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the time source that picks the run's data day.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithMetrics attaches collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// Extractor runs the extract stage for a set of jobs.
type Extractor struct {
	resolver   Resolver
	dispatcher Dispatcher
	store      *storage.Store
	logger     logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewExtractor creates an extractor.
func NewExtractor(
	resolver Resolver,
	dispatcher Dispatcher,
	store *storage.Store,
	log logger.Logger,
	opts ...Option,
) *Extractor {
	e := &Extractor{
		resolver:   resolver,
		dispatcher: dispatcher,
		store:      store,
		logger:     log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes jobs one after another and returns their results in job
// order. Jobs that produce no pages still get a result, but no raw document.
// A fatal error stops the run; fetch records written so far are kept.
func (e *Extractor) Run(ctx context.Context, jobs []domain.Job) ([]*domain.SourceResult, error) {
	return e.RunDay(ctx, storage.Day(e.now()), jobs)
}

// RunDay is Run with the output day chosen by the caller.
func (e *Extractor) RunDay(ctx context.Context, day string, jobs []domain.Job) ([]*domain.SourceResult, error) {
	runID := uuid.NewString()
	log := e.logger.With(logger.String("run_id", runID), logger.String("date", day))

	log.Info("extract run started", logger.Int("jobs", len(jobs)))

	results := make([]*domain.SourceResult, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := e.runJob(ctx, log, day, job)
		if err != nil {
			log.Error("extract run aborted", logger.String("source", job.Name), logger.Error(err))
			return results, err
		}
		results = append(results, result)
	}

	log.Info("extract run finished", logger.Int("jobs", len(results)))
	return results, nil
}

func (e *Extractor) runJob(ctx context.Context, log logger.Logger, day string, job domain.Job) (*domain.SourceResult, error) {
	start := time.Now()
	log = log.With(logger.String("source", job.Name))
	defer e.metrics.RunFinished(job.Name, start)

	if _, err := e.store.SaveJob(day, job); err != nil {
		return nil, fmt.Errorf("source %s: save job: %w", job.Name, err)
	}

	urls, err := e.resolver.Resolve(ctx, job)
	if err != nil {
		return nil, err
	}
	log.Debug("navigation complete", logger.Int("urls", len(urls)))

	result, err := e.dispatcher.Dispatch(ctx, job, urls)
	if err != nil {
		return nil, err
	}

	if result.Empty() {
		log.Info("no new pages", logger.Int("urls", len(urls)))
		return result, nil
	}

	// Earlier runs on the same day already recorded their URLs in the ledger,
	// so their pages must stay in the raw document.
	doc := result.Document()
	prev, err := e.store.LoadDocument(storage.LayerRaw, day, job.Name)
	switch {
	case err == nil:
		doc = prev.Merge(doc)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("source %s: load raw: %w", job.Name, err)
	}

	path, err := e.store.SaveDocument(storage.LayerRaw, day, job.Name, doc)
	if err != nil {
		return nil, fmt.Errorf("source %s: save raw: %w", job.Name, err)
	}
	log.Info("raw document saved",
		logger.String("path", path),
		logger.Int("pages", len(result.Pages)),
		logger.Int("total_urls", len(doc.Result)),
		logger.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}
