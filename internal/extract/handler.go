// Package extract implements the per-content-type link selectors and field extractors.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonesrussell/webetl/internal/domain"
)

var (
	// ErrNoDocument marks a soft failure: the page could not be fetched or parsed.
	// Callers log it and move on.
	ErrNoDocument = errors.New("no document")

	// ErrInvalidSelector is returned for a selector that does not compile. It is a
	// configuration error and aborts the run.
	ErrInvalidSelector = errors.New("invalid selector")
)

// Fetcher retrieves a raw page body.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Handler fetches and queries pages of one content type.
type Handler interface {
	// Links returns the raw outbound link strings selector yields on pageURL.
	Links(ctx context.Context, pageURL, selector string) ([]string, error)
	// Extract evaluates fields against pageURL.
	Extract(ctx context.Context, pageURL string, fields []domain.Field) (*domain.PageResult, error)
	// Validate checks a selector without fetching anything.
	Validate(selector string) error
}

// Registry maps content types to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.ContentType]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.ContentType]Handler)}
}

// NewDefaultRegistry registers the html, rss and pdf handlers on top of fetcher.
func NewDefaultRegistry(fetcher Fetcher) *Registry {
	r := NewRegistry()
	r.Register(domain.ContentTypeHTML, NewHTMLHandler(fetcher))
	r.Register(domain.ContentTypeRSS, NewRSSHandler(fetcher))
	r.Register(domain.ContentTypePDF, NewPDFHandler(fetcher))
	return r
}

// Register adds or replaces the handler for ct.
func (r *Registry) Register(ct domain.ContentType, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[ct] = h
}

// Lookup returns the handler for ct or ErrUnsupportedContentType.
func (r *Registry) Lookup(ct domain.ContentType) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[ct]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedContentType, ct)
	}
	return h, nil
}

// ValidateJob checks every content type and selector of job against the registry.
func (r *Registry) ValidateJob(job domain.Job) error {
	for i, step := range job.Steps {
		h, err := r.Lookup(step.ContentType)
		if err != nil {
			return fmt.Errorf("source %s step %d: %w", job.Name, i+1, err)
		}
		if err := h.Validate(step.Selector); err != nil {
			return fmt.Errorf("source %s step %d: %w", job.Name, i+1, err)
		}
	}

	h, err := r.Lookup(job.ContentType)
	if err != nil {
		return fmt.Errorf("source %s extract: %w", job.Name, err)
	}
	for _, f := range job.Fields {
		if err := h.Validate(f.Selector); err != nil {
			return fmt.Errorf("source %s field %s: %w", job.Name, f.Name, err)
		}
	}
	return nil
}

// noDocument wraps a fetch or parse failure as a soft ErrNoDocument.
func noDocument(pageURL string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNoDocument, pageURL, err)
}

func fetch(ctx context.Context, f Fetcher, pageURL string) ([]byte, error) {
	body, err := f.Get(ctx, pageURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, noDocument(pageURL, err)
	}
	return body, nil
}

func appendTrimmed(page *domain.PageResult, name, value string, entry int) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	page.Extractions = append(page.Extractions, domain.Extraction{Name: name, Value: value, Entry: entry})
}
