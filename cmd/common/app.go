package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jonesrussell/webetl/internal/database"
	"github.com/jonesrussell/webetl/internal/dispatcher"
	"github.com/jonesrussell/webetl/internal/extract"
	"github.com/jonesrussell/webetl/internal/fetcher"
	"github.com/jonesrussell/webetl/internal/load"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/metrics"
	"github.com/jonesrussell/webetl/internal/navigator"
	"github.com/jonesrussell/webetl/internal/pipeline"
	"github.com/jonesrussell/webetl/internal/sources/loader"
	"github.com/jonesrussell/webetl/internal/storage"
	"github.com/jonesrussell/webetl/internal/transform"
	"github.com/jonesrussell/webetl/internal/worker"
)

// App wires the run components from CommandDeps.
type App struct {
	CommandDeps

	DB       *sqlx.DB
	Ledger   *database.FetchLedgerRepository
	Store    *storage.Store
	Registry *extract.Registry
	Pool     *worker.Pool
	Metrics  *metrics.Metrics
	Gatherer *prometheus.Registry
}

// OpenLedger connects to the configured ledger and migrates its schema.
func OpenLedger(ctx context.Context, cfg database.Config) (*sqlx.DB, *database.FetchLedgerRepository, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}

	repo := database.NewFetchLedgerRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return db, repo, nil
}

// NewApp opens the ledger and builds the shared fetcher, registry and pool.
func NewApp(ctx context.Context, deps CommandDeps) (*App, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	pool, err := worker.NewPool(cfg.Fetch.Pool())
	if err != nil {
		return nil, err
	}

	db, ledger, err := OpenLedger(ctx, cfg.Ledger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &App{
		CommandDeps: deps,
		DB:          db,
		Ledger:      ledger,
		Store:       storage.New(cfg.Data.Dir),
		Registry:    extract.NewDefaultRegistry(fetcher.New(cfg.Fetch.HTTP())),
		Pool:        pool,
		Metrics:     metrics.NewMetrics(reg),
		Gatherer:    reg,
	}, nil
}

// Close releases the ledger connection.
func (a *App) Close() error {
	return a.DB.Close()
}

// Sources returns a loader for the sources file at path.
func (a *App) Sources(path string) *loader.Loader {
	return loader.NewLoader(path, a.Registry)
}

// Extractor builds the extract stage.
func (a *App) Extractor() *pipeline.Extractor {
	nav := navigator.New(a.Registry, a.Pool, a.Logger, navigator.WithMetrics(a.Metrics))
	disp := dispatcher.New(a.Registry, a.Ledger, a.Pool, a.Logger, dispatcher.WithMetrics(a.Metrics))
	return pipeline.NewExtractor(nav, disp, a.Store, a.Logger, pipeline.WithMetrics(a.Metrics))
}

// Transformer builds the transform stage. Without an API key, jobs that
// declare LLM steps are skipped.
func (a *App) Transformer() *transform.Transformer {
	cfg := a.Config.Transform

	var completer transform.Completer
	c, err := transform.NewAnthropicCompleter(cfg.APIKey, cfg.MaxTokens)
	if err != nil {
		a.Logger.Warn("LLM transforms disabled", logger.Error(err))
	} else {
		completer = c
	}
	return transform.NewTransformer(a.Store, completer, cfg.Model, a.Logger)
}

// Loader builds the load stage.
func (a *App) Loader() *load.Loader {
	return load.NewLoader(a.Store, a.Logger)
}

// Runner builds the full extract, transform and load chain for a sources file.
func (a *App) Runner(sourcesPath string) *pipeline.Runner {
	return pipeline.NewRunner(a.Sources(sourcesPath), a.Extractor(), a.Transformer(), a.Loader(), a.Logger)
}
