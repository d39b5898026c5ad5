package transform

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/sources/loader"
	"github.com/jonesrussell/webetl/internal/storage"
)

// Transformer moves a day's raw documents to the silver layer.
type Transformer struct {
	store        *storage.Store
	completer    Completer
	logger       logger.Logger
	defaultModel string
}

// NewTransformer creates a transformer. completer may be nil, in which case
// jobs that declare LLM steps are skipped.
func NewTransformer(store *storage.Store, completer Completer, defaultModel string, log logger.Logger) *Transformer {
	return &Transformer{
		store:        store,
		completer:    completer,
		logger:       log,
		defaultModel: defaultModel,
	}
}

// Run transforms every job saved for day and returns how many silver
// documents were written.
func (t *Transformer) Run(ctx context.Context, day string) (int, error) {
	log := t.logger.With(logger.String("date", day))

	jobs, err := t.store.ListJobs(day)
	if err != nil {
		return 0, fmt.Errorf("list jobs: %w", err)
	}

	written := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		ok, err := t.transformJob(ctx, log.With(logger.String("source", job.Name)), day, job)
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}

	log.Info("transform complete", logger.Int("jobs", len(jobs)), logger.Int("written", written))
	return written, nil
}

func (t *Transformer) transformJob(ctx context.Context, log logger.Logger, day string, job domain.Job) (bool, error) {
	raw, err := t.store.LoadDocument(storage.LayerRaw, day, job.Name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("no raw data found")
			return false, nil
		}
		return false, err
	}

	cfg, err := DecodeConfig(job.DownstreamBlock(loader.TransformBlock))
	if err != nil {
		return false, fmt.Errorf("source %s: %w", job.Name, err)
	}

	if !cfg.HasSteps() {
		if _, err := t.store.SaveDocument(storage.LayerSilver, day, job.Name, raw); err != nil {
			return false, err
		}
		log.Info("saved to silver without transform")
		return true, nil
	}

	if t.completer == nil {
		log.Error("transform skipped", logger.Error(ErrMissingAPIKey))
		return false, nil
	}

	silver := t.Apply(ctx, log, raw, cfg.LLM)
	if _, err := t.store.SaveDocument(storage.LayerSilver, day, job.Name, silver); err != nil {
		return false, err
	}
	log.Info("saved transformed data to silver", logger.Int("steps", len(cfg.LLM)))
	return true, nil
}

// Apply runs steps, in order, on a copy of every entry of doc. Later steps see
// the outputs of earlier ones. A step that cannot run leaves the entry as is.
func (t *Transformer) Apply(ctx context.Context, log logger.Logger, doc domain.Document, steps []Step) domain.Document {
	out := domain.Document{
		Source:         doc.Source,
		ExtractionDate: doc.ExtractionDate,
		Result:         make(map[string][]map[string]string, len(doc.Result)),
	}

	for pageURL, entries := range doc.Result {
		processed := make([]map[string]string, 0, len(entries))
		for _, entry := range entries {
			entry = maps.Clone(entry)
			if entry == nil {
				entry = make(map[string]string)
			}
			for _, step := range steps {
				t.applyStep(ctx, log.With(logger.String("url", pageURL)), entry, step)
			}
			processed = append(processed, entry)
		}
		out.Result[pageURL] = processed
	}

	return out
}

func (t *Transformer) applyStep(ctx context.Context, log logger.Logger, entry map[string]string, step Step) {
	log = log.With(logger.String("step", step.Name))

	parts := make([]string, 0, len(step.Input))
	for _, field := range step.Input {
		value, ok := entry[field]
		if !ok {
			log.Warn("input field not found", logger.String("field", field))
			continue
		}
		parts = append(parts, field+": "+value)
	}
	if len(parts) == 0 {
		log.Warn("no input fields found")
		return
	}

	model := step.Model
	if model == "" {
		model = t.defaultModel
	}

	result, err := t.completer.Complete(ctx, model, step.Prompt, strings.Join(parts, "\n"))
	if err != nil {
		log.Error("completion failed", logger.String("model", model), logger.Error(err))
		return
	}
	entry[step.Output] = result
}
