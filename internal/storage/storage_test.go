package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/storage"
)

const day = "2024-05-01"

func sampleJob(name string) domain.Job {
	return domain.Job{
		Name: name,
		Seed: "https://example.com/",
		Steps: []domain.NavigationStep{
			{ContentType: domain.ContentTypeHTML, Selector: "//a/@href", MustContain: []string{"article"}},
		},
		ContentType: domain.ContentTypeRSS,
		Fields:      []domain.Field{{Name: "title", Selector: "title"}},
		Downstream: map[string]any{
			"load": map[string]any{"xml": map[string]any{"fields": []any{}}},
		},
		CompiledAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestStore_JobRoundTrip(t *testing.T) {
	t.Parallel()

	store := storage.New(t.TempDir())

	path, err := store.SaveJob(day, sampleJob("beta"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "jobs", day, "beta.json"), path)

	_, err = store.SaveJob(day, sampleJob("alpha"))
	require.NoError(t, err)

	job, err := store.LoadJob(day, "beta")
	require.NoError(t, err)
	assert.Equal(t, sampleJob("beta").Steps, job.Steps)
	assert.Equal(t, domain.ContentTypeRSS, job.ContentType)
	assert.NotNil(t, job.DownstreamBlock("load"))
	assert.True(t, job.CompiledAt.Equal(sampleJob("beta").CompiledAt))

	jobs, err := store.ListJobs(day)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "alpha", jobs[0].Name)
	assert.Equal(t, "beta", jobs[1].Name)
}

func TestStore_DocumentLayers(t *testing.T) {
	t.Parallel()

	store := storage.New(t.TempDir())
	doc := domain.Document{
		Source:         "feed",
		ExtractionDate: "2024-05-01T09:00:00Z",
		Result: map[string][]map[string]string{
			"https://example.com/feed.xml": {{"title": "First"}, {"title": "Second"}},
		},
	}

	_, err := store.SaveDocument(storage.LayerRaw, day, "feed", doc)
	require.NoError(t, err)

	got, err := store.LoadDocument(storage.LayerRaw, day, "feed")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = store.LoadDocument(storage.LayerSilver, day, "feed")
	require.ErrorIs(t, err, storage.ErrNotFound)

	names, err := store.ListDocuments(storage.LayerRaw, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"feed"}, names)

	_, err = store.SaveDocument(storage.Layer("bronze"), day, "feed", doc)
	require.ErrorIs(t, err, storage.ErrInvalidLayer)
}

func TestStore_SaveXMLOverwrites(t *testing.T) {
	t.Parallel()

	store := storage.New(t.TempDir())

	_, err := store.SaveXML(day, "feed", []byte("<feed/>"))
	require.NoError(t, err)
	path, err := store.SaveXML(day, "feed", []byte("<feed></feed>"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<feed></feed>", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestStore_RejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	store := storage.New(t.TempDir())
	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		_, err := store.SaveJob(day, domain.Job{Name: name})
		require.ErrorIs(t, err, storage.ErrInvalidName, name)
	}

	_, err := store.SaveXML("May 1", "feed", nil)
	require.Error(t, err)
}

func TestStore_ListMissingDay(t *testing.T) {
	t.Parallel()

	_, err := storage.New(t.TempDir()).ListJobs(day)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)

	got, err := storage.ParseDay("", now)
	require.NoError(t, err)
	assert.Equal(t, day, got)

	got, err = storage.ParseDay("2023-12-31", now)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", got)

	_, err = storage.ParseDay("31/12/2023", now)
	require.Error(t, err)
}
