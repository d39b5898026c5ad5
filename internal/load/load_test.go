package load_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/load"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/storage"
)

const day = "2024-05-01"

func silverDocument() domain.Document {
	return domain.Document{
		Source:         "feed",
		ExtractionDate: "2024-05-01T09:00:00Z",
		Result: map[string][]map[string]string{
			"https://example.com/b": {{"title": "B & co", "summary": "Second"}},
			"https://example.com/a": {{"title": "A", "summary": "First"}},
		},
	}
}

func loadBlock() map[string]any {
	return map[string]any{
		"xml": map[string]any{
			"fields": []any{
				map[string]any{"field": "title", "name": "headline"},
				map[string]any{"field": "summary"},
			},
		},
		"json": map[string]any{
			"fields": []any{
				map[string]any{"field": "title", "name": "headline"},
				map[string]any{"field": "missing"},
			},
		},
	}
}

func TestRenderXML(t *testing.T) {
	t.Parallel()

	cfg, err := load.DecodeConfig(loadBlock())
	require.NoError(t, err)

	data, err := load.RenderXML(logger.NewNop(), silverDocument(), cfg.XML.Fields)
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<feed extraction_date="2024-05-01T09:00:00Z">
  <item>
    <headline>A</headline>
    <summary>First</summary>
  </item>
  <item>
    <headline>B &amp; co</headline>
    <summary>Second</summary>
  </item>
</feed>
`
	assert.Equal(t, want, string(data))
}

func TestRenderJSON_MissingFieldIsSkipped(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	cfg, err := load.DecodeConfig(loadBlock())
	require.NoError(t, err)

	out := load.RenderJSON(logger.FromZap(zap.New(core)), silverDocument(), cfg.JSON.Fields)

	assert.Equal(t, "feed", out.Source)
	assert.Equal(t, []map[string]string{{"headline": "A"}}, out.Result["https://example.com/a"])
	assert.Equal(t, []map[string]string{{"headline": "B & co"}}, out.Result["https://example.com/b"])
	assert.Len(t, logs.FilterMessage("field not found in entry").All(), 2)
}

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	cfg, err := load.DecodeConfig(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = load.DecodeConfig(map[string]any{
		"xml": map[string]any{"fields": []any{map[string]any{"name": "orphan"}}},
	})
	require.ErrorIs(t, err, load.ErrInvalidConfig)
}

func TestLoader_Run(t *testing.T) {
	t.Parallel()

	store := storage.New(t.TempDir())
	withLoad := domain.Job{
		Name: "feed", Seed: "https://example.com/feed.xml", ContentType: domain.ContentTypeRSS,
		Downstream: map[string]any{"load": loadBlock()},
	}
	withoutLoad := domain.Job{Name: "plain", Seed: "https://example.com/", ContentType: domain.ContentTypeHTML}

	for _, job := range []domain.Job{withLoad, withoutLoad} {
		_, err := store.SaveJob(day, job)
		require.NoError(t, err)
		doc := silverDocument()
		doc.Source = job.Name
		_, err = store.SaveDocument(storage.LayerSilver, day, job.Name, doc)
		require.NoError(t, err)
	}
	// A silver document without a job is skipped.
	_, err := store.SaveDocument(storage.LayerSilver, day, "orphan", silverDocument())
	require.NoError(t, err)

	written, err := load.NewLoader(store, logger.NewNop()).Run(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	xmlData, err := os.ReadFile(filepath.Join(store.Root(), "gold", day, "feed.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(xmlData), "<headline>A</headline>")

	gold, err := store.LoadDocument(storage.LayerGold, day, "feed")
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"headline": "A"}}, gold.Result["https://example.com/a"])

	_, err = store.LoadDocument(storage.LayerGold, day, "plain")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoader_RunMissingSilverDay(t *testing.T) {
	t.Parallel()

	_, err := load.NewLoader(storage.New(t.TempDir()), logger.NewNop()).Run(context.Background(), day)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
