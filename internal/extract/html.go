package extract

import (
	"context"

	"golang.org/x/net/html"

	"github.com/jonesrussell/webetl/internal/domain"
)

// HTMLHandler queries HTML pages with XPath, or CSS for selectors prefixed with "css:".
type HTMLHandler struct {
	fetcher Fetcher
}

// NewHTMLHandler creates an HTML handler.
func NewHTMLHandler(fetcher Fetcher) *HTMLHandler {
	return &HTMLHandler{fetcher: fetcher}
}

// Validate compiles selector.
func (h *HTMLHandler) Validate(selector string) error {
	_, err := compileHTMLSelector(selector)
	return err
}

// Links returns every value selector yields on pageURL.
func (h *HTMLHandler) Links(ctx context.Context, pageURL, selector string) ([]string, error) {
	sel, err := compileHTMLSelector(selector)
	if err != nil {
		return nil, err
	}

	doc, err := h.document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return sel.links(doc), nil
}

// Extract evaluates each field against pageURL, keeping only the first match of
// each selector. Fields without a non-blank match are omitted.
func (h *HTMLHandler) Extract(ctx context.Context, pageURL string, fields []domain.Field) (*domain.PageResult, error) {
	selectors := make([]htmlSelector, len(fields))
	for i, f := range fields {
		sel, err := compileHTMLSelector(f.Selector)
		if err != nil {
			return nil, err
		}
		selectors[i] = sel
	}

	doc, err := h.document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page := &domain.PageResult{URL: pageURL, Extractions: make([]domain.Extraction, 0, len(fields))}
	for i, f := range fields {
		if value, ok := selectors[i].first(doc); ok {
			appendTrimmed(page, f.Name, value, 0)
		}
	}

	return page, nil
}

func (h *HTMLHandler) document(ctx context.Context, pageURL string) (*html.Node, error) {
	body, err := fetch(ctx, h.fetcher, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := parseHTML(body)
	if err != nil {
		return nil, noDocument(pageURL, err)
	}
	return doc, nil
}
