package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/pipeline"
	"github.com/jonesrussell/webetl/internal/storage"
)

type staticSource struct {
	jobs []domain.Job
	err  error
	name string
}

func (s *staticSource) Load(name string) ([]domain.Job, error) {
	s.name = name
	return s.jobs, s.err
}

type recordingStage struct {
	days []string
	err  error
}

func (s *recordingStage) Run(_ context.Context, day string) (int, error) {
	s.days = append(s.days, day)
	return len(s.days), s.err
}

func TestRunner_ChainsStages(t *testing.T) {
	t.Parallel()

	store := storage.New(t.TempDir())
	source := &staticSource{jobs: []domain.Job{
		{Name: "report", Seed: "https://example.com/report.pdf", ContentType: domain.ContentTypePDF},
	}}
	transformer := &recordingStage{}
	loader := &recordingStage{}

	extractor := pipeline.NewExtractor(&stubResolver{}, stubDispatcher{}, store, logger.NewNop(), pipeline.WithClock(runClock))
	runner := pipeline.NewRunner(source, extractor, transformer, loader, logger.NewNop())

	require.NoError(t, runner.Run(context.Background(), "report"))
	assert.Equal(t, "report", source.name)
	assert.Equal(t, []string{runDay}, transformer.days)
	assert.Equal(t, []string{runDay}, loader.days)

	_, err := store.LoadDocument(storage.LayerRaw, runDay, "report")
	require.NoError(t, err)
}

func TestRunner_NothingToLoadIsNotAnError(t *testing.T) {
	t.Parallel()

	loader := &recordingStage{err: storage.ErrNotFound}
	extractor := pipeline.NewExtractor(&stubResolver{}, stubDispatcher{}, storage.New(t.TempDir()), logger.NewNop())
	runner := pipeline.NewRunner(&staticSource{}, extractor, &recordingStage{}, loader, logger.NewNop())

	require.NoError(t, runner.Run(context.Background(), ""))
	assert.Len(t, loader.days, 1)
}

func TestRunner_Errors(t *testing.T) {
	t.Parallel()

	sourceErr := errors.New("bad yaml")
	extractor := pipeline.NewExtractor(&stubResolver{}, stubDispatcher{}, storage.New(t.TempDir()), logger.NewNop())

	runner := pipeline.NewRunner(&staticSource{err: sourceErr}, extractor, &recordingStage{}, &recordingStage{}, logger.NewNop())
	require.ErrorIs(t, runner.Run(context.Background(), ""), sourceErr)

	stageErr := errors.New("disk full")
	transformer := &recordingStage{err: stageErr}
	loader := &recordingStage{}
	runner = pipeline.NewRunner(&staticSource{}, extractor, transformer, loader, logger.NewNop())
	require.ErrorIs(t, runner.Run(context.Background(), ""), stageErr)
	assert.Empty(t, loader.days, "load does not run after a failed transform")
}
