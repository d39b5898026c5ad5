package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/feed"
)

// RSSHandler queries RSS and Atom feeds by entry attribute name.
type RSSHandler struct {
	fetcher Fetcher
}

// NewRSSHandler creates a feed handler.
func NewRSSHandler(fetcher Fetcher) *RSSHandler {
	return &RSSHandler{fetcher: fetcher}
}

// Validate rejects an empty attribute name.
func (h *RSSHandler) Validate(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return fmt.Errorf("%w: empty feed attribute", ErrInvalidSelector)
	}
	return nil
}

// Links collects the named attribute from every entry, in feed order.
func (h *RSSHandler) Links(ctx context.Context, pageURL, selector string) ([]string, error) {
	if err := h.Validate(selector); err != nil {
		return nil, err
	}

	parsed, err := h.feed(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if v := strings.TrimSpace(feed.Lookup(item, selector)); v != "" {
			links = append(links, v)
		}
	}
	return links, nil
}

// Extract loops entries in feed order and fields in declaration order, keeping
// every non-blank value.
func (h *RSSHandler) Extract(ctx context.Context, pageURL string, fields []domain.Field) (*domain.PageResult, error) {
	for _, f := range fields {
		if err := h.Validate(f.Selector); err != nil {
			return nil, err
		}
	}

	parsed, err := h.feed(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page := &domain.PageResult{URL: pageURL, Extractions: make([]domain.Extraction, 0, len(parsed.Items)*len(fields))}
	for entry, item := range parsed.Items {
		for _, f := range fields {
			appendTrimmed(page, f.Name, feed.Lookup(item, f.Selector), entry)
		}
	}
	return page, nil
}

func (h *RSSHandler) feed(ctx context.Context, pageURL string) (*gofeed.Feed, error) {
	body, err := fetch(ctx, h.fetcher, pageURL)
	if err != nil {
		return nil, err
	}

	parsed, err := feed.Parse(ctx, body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, noDocument(pageURL, err)
	}
	return parsed, nil
}
