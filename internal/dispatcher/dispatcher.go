// Package dispatcher runs the terminal extraction pass of a job and records
// every harvested URL in the fetch ledger.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/extract"
	"github.com/jonesrussell/webetl/internal/frontier"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/metrics"
	"github.com/jonesrussell/webetl/internal/worker"
)

// Ledger is the part of the fetch ledger the dispatcher needs.
type Ledger interface {
	FilterUnfetched(ctx context.Context, urls []string, source string) ([]string, error)
	RecordFetch(ctx context.Context, url, source string, at time.Time) error
}

// HandlerRegistry resolves the handler for a content type.
type HandlerRegistry interface {
	Lookup(ct domain.ContentType) (extract.Handler, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the time source used for extraction dates and fetch records.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithMetrics attaches collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// Dispatcher extracts fields from a job's final URLs.
type Dispatcher struct {
	registry HandlerRegistry
	ledger   Ledger
	pool     *worker.Pool
	logger   logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates a dispatcher.
func New(registry HandlerRegistry, ledger Ledger, pool *worker.Pool, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		ledger:   ledger,
		pool:     pool,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch extracts every URL the job's source has not fetched yet. Each
// successful extraction is recorded in the ledger before its page is returned.
// Soft failures are logged and left unrecorded so a later run retries them.
// Ledger failures, unsupported content types and invalid selectors abort the
// dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, job domain.Job, urls []string) (*domain.SourceResult, error) {
	result := domain.NewSourceResult(job.Name, d.now())
	log := d.logger.With(logger.String("source", job.Name))

	if len(urls) == 0 {
		return result, nil
	}

	pending, err := d.ledger.FilterUnfetched(ctx, urls, job.Name)
	if err != nil {
		return nil, fmt.Errorf("source %s: filter fetched urls: %w", job.Name, err)
	}

	d.metrics.Skipped(job.Name, len(frontier.Dedup(urls))-len(pending))
	if len(pending) == 0 {
		log.Info("all URLs already fetched", logger.Int("urls", len(urls)))
		return result, nil
	}

	h, err := d.registry.Lookup(job.ContentType)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", job.Name, err)
	}

	pages, err := worker.Run(ctx, d.pool, pending, func(ctx context.Context, pageURL string) ([]domain.PageResult, error) {
		return d.extract(ctx, log, h, job, pageURL)
	})
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", job.Name, err)
	}

	result.Pages = pages
	log.Info("extraction complete",
		logger.Int("pending", len(pending)),
		logger.Int("pages", len(pages)),
	)

	return result, nil
}

func (d *Dispatcher) extract(
	ctx context.Context,
	log logger.Logger,
	h extract.Handler,
	job domain.Job,
	pageURL string,
) ([]domain.PageResult, error) {
	page, err := h.Extract(ctx, pageURL, job.Fields)
	if err != nil {
		if errors.Is(err, extract.ErrNoDocument) {
			log.Warn("extraction fetch failed", logger.String("url", pageURL), logger.Error(err))
			d.metrics.FetchFailed(metrics.StageExtract)
			return nil, worker.Skip(err)
		}
		return nil, err
	}

	if recordErr := d.ledger.RecordFetch(ctx, pageURL, job.Name, d.now()); recordErr != nil {
		return nil, fmt.Errorf("record fetch: %w", recordErr)
	}
	d.metrics.PageExtracted(job.Name)

	return []domain.PageResult{*page}, nil
}
