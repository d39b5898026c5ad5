package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jonesrussell/webetl/internal/domain"
)

// PDFContentField is the single field a PDF extraction emits.
const PDFContentField = "content"

// errNoText is wrapped in ErrNoDocument for PDFs without a text layer.
var errNoText = errors.New("no extractable text")

// PDFHandler extracts the plain text of PDF documents.
type PDFHandler struct {
	fetcher Fetcher
}

// NewPDFHandler creates a PDF handler.
func NewPDFHandler(fetcher Fetcher) *PDFHandler {
	return &PDFHandler{fetcher: fetcher}
}

// Validate accepts any selector; PDF field selectors are ignored.
func (h *PDFHandler) Validate(string) error {
	return nil
}

// Links returns the URI link annotations of every page. A non-empty selector
// keeps only URIs containing it.
func (h *PDFHandler) Links(ctx context.Context, pageURL, selector string) ([]string, error) {
	reader, err := h.open(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var links []string
	err = guard(pageURL, func() error {
		for i := 1; i <= reader.NumPage(); i++ {
			annots := reader.Page(i).V.Key("Annots")
			for j := 0; j < annots.Len(); j++ {
				action := annots.Index(j).Key("A")
				if action.Key("S").Name() != "URI" {
					continue
				}
				uri := strings.TrimSpace(action.Key("URI").Text())
				if uri != "" && strings.Contains(uri, selector) {
					links = append(links, uri)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

// Extract concatenates the text of every page into one "content" extraction.
// The field list is ignored. A PDF without text, such as a scan, is a soft
// ErrNoDocument so it is not recorded as fetched.
func (h *PDFHandler) Extract(ctx context.Context, pageURL string, _ []domain.Field) (*domain.PageResult, error) {
	reader, err := h.open(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	err = guard(pageURL, func() error {
		for i := 1; i <= reader.NumPage(); i++ {
			p := reader.Page(i)
			if p.V.IsNull() {
				continue
			}
			content, textErr := p.GetPlainText(nil)
			if textErr != nil {
				return textErr
			}
			text.WriteString(content)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, noDocument(pageURL, errNoText)
	}

	page := &domain.PageResult{URL: pageURL, Extractions: make([]domain.Extraction, 0, 1)}
	appendTrimmed(page, PDFContentField, text.String(), 0)
	return page, nil
}

func (h *PDFHandler) open(ctx context.Context, pageURL string) (*pdf.Reader, error) {
	body, err := fetch(ctx, h.fetcher, pageURL)
	if err != nil {
		return nil, err
	}

	var reader *pdf.Reader
	err = guard(pageURL, func() error {
		var openErr error
		reader, openErr = pdf.NewReader(bytes.NewReader(body), int64(len(body)))
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// guard runs fn and converts both errors and parser panics into ErrNoDocument.
func guard(pageURL string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = noDocument(pageURL, fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	if fnErr := fn(); fnErr != nil {
		return noDocument(pageURL, fnErr)
	}
	return nil
}
