// Package navigator walks a job's navigation chain from its seed to the final URL set.
package navigator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/extract"
	"github.com/jonesrussell/webetl/internal/frontier"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/metrics"
	"github.com/jonesrussell/webetl/internal/worker"
)

// HandlerRegistry resolves the handler for a content type.
type HandlerRegistry interface {
	Lookup(ct domain.ContentType) (extract.Handler, error)
}

// Navigator resolves jobs into the URLs their extraction pass should visit.
type Navigator struct {
	registry HandlerRegistry
	pool     *worker.Pool
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithMetrics attaches collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Navigator) {
		n.metrics = m
	}
}

// New creates a navigator.
func New(registry HandlerRegistry, pool *worker.Pool, log logger.Logger, opts ...Option) *Navigator {
	n := &Navigator{registry: registry, pool: pool, logger: log}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Resolve returns the final URL set of job. A job without steps resolves to its
// seed. When a step discovers nothing, a warning is logged and the empty set is
// returned with a nil error so other jobs are unaffected. Unsupported content
// types, invalid selectors and context cancellation are returned as errors.
func (n *Navigator) Resolve(ctx context.Context, job domain.Job) ([]string, error) {
	if !job.HasNavigation() {
		return []string{job.Seed}, nil
	}

	handlers := make([]extract.Handler, len(job.Steps))
	for i, step := range job.Steps {
		h, err := n.registry.Lookup(step.ContentType)
		if err != nil {
			return nil, fmt.Errorf("source %s step %d: %w", job.Name, i+1, err)
		}
		handlers[i] = h
	}

	working := []string{job.Seed}
	for i, step := range job.Steps {
		stepLog := n.logger.With(logger.String("source", job.Name), logger.Int("step", i+1))

		links, err := worker.Run(ctx, n.pool, working, func(ctx context.Context, pageURL string) ([]string, error) {
			return n.visit(ctx, stepLog, handlers[i], step, pageURL)
		})
		if err != nil {
			return nil, fmt.Errorf("source %s step %d: %w", job.Name, i+1, err)
		}

		next := frontier.Dedup(frontier.MustContain(links, step.MustContain))
		if len(next) == 0 {
			stepLog.Warn("navigation step discovered no URLs",
				logger.Int("pages_visited", len(working)),
				logger.Int("links_found", len(links)),
			)
			n.metrics.NavigationAborted(job.Name)
			return []string{}, nil
		}

		stepLog.Debug("navigation step complete",
			logger.Int("pages_visited", len(working)),
			logger.Int("urls", len(next)),
		)
		working = next
	}

	return working, nil
}

// visit queries one page of a step and resolves its links against it.
func (n *Navigator) visit(
	ctx context.Context,
	log logger.Logger,
	h extract.Handler,
	step domain.NavigationStep,
	pageURL string,
) ([]string, error) {
	raw, err := h.Links(ctx, pageURL, step.Selector)
	if err != nil {
		if errors.Is(err, extract.ErrNoDocument) {
			log.Warn("navigation fetch failed", logger.String("url", pageURL), logger.Error(err))
			n.metrics.FetchFailed(metrics.StageNavigate)
			return nil, worker.Skip(err)
		}
		return nil, err
	}

	resolved := make([]string, 0, len(raw))
	for _, link := range raw {
		abs, resolveErr := frontier.Resolve(pageURL, link)
		if resolveErr != nil {
			log.Debug("skipping link", logger.String("url", pageURL), logger.String("link", link), logger.Error(resolveErr))
			continue
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}
