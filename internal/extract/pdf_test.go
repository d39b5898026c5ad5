package extract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/extract"
	"github.com/jonesrussell/webetl/internal/fetcher"
	"github.com/jonesrussell/webetl/testutils"
)

func TestPDFHandler_Extract(t *testing.T) {
	t.Parallel()

	site := testutils.NewSite(t)
	h := extract.NewPDFHandler(fetcher.New(fetcher.Config{}))

	page, err := h.Extract(context.Background(), site.URL("/report.pdf"), []domain.Field{{Name: "ignored", Selector: "x"}})
	require.NoError(t, err)
	require.Len(t, page.Extractions, 1)
	assert.Equal(t, extract.PDFContentField, page.Extractions[0].Name)
	assert.Contains(t, page.Extractions[0].Value, testutils.PDFText)
}

func TestPDFHandler_ExtractJoinsPagesInOrder(t *testing.T) {
	t.Parallel()

	body := testutils.BuildPDFPages([]string{"PageOne", "PageTwo", "PageThree"})
	h := extract.NewPDFHandler(staticFetcher(t, string(body)))

	page, err := h.Extract(context.Background(), "https://example.com/doc.pdf", nil)
	require.NoError(t, err)
	require.Len(t, page.Extractions, 1)
	assert.Equal(t, domain.Extraction{Name: extract.PDFContentField, Value: "PageOnePageTwoPageThree"}, page.Extractions[0])
}

func TestPDFHandler_ExtractWithoutTextIsSoft(t *testing.T) {
	t.Parallel()

	h := extract.NewPDFHandler(staticFetcher(t, string(testutils.BuildPDF("   "))))

	page, err := h.Extract(context.Background(), "https://example.com/scan.pdf", nil)
	require.ErrorIs(t, err, extract.ErrNoDocument)
	assert.Nil(t, page)
}

func TestPDFHandler_Links(t *testing.T) {
	t.Parallel()

	body := testutils.BuildPDF("links", "https://example.com/a", "https://other.example/b")
	h := extract.NewPDFHandler(staticFetcher(t, string(body)))

	links, err := h.Links(context.Background(), "https://example.com/doc.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://other.example/b"}, links)

	links, err = h.Links(context.Background(), "https://example.com/doc.pdf", "other.example")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://other.example/b"}, links)
}

func TestPDFHandler_MalformedIsSoft(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"garbage":   "definitely not a pdf",
		"truncated": string(testutils.BuildPDF("cut short")[:120]),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := extract.NewPDFHandler(staticFetcher(t, body))
			_, err := h.Extract(context.Background(), "https://example.com/doc.pdf", nil)
			require.ErrorIs(t, err, extract.ErrNoDocument)
		})
	}
}
