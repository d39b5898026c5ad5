// Package schedule implements the schedule command: the full pipeline on a
// cron expression, with health and metrics endpoints.
package schedule

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/webetl/cmd/common"
	"github.com/jonesrussell/webetl/internal/api"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/scheduler"
)

// Options holds the schedule command flags.
type Options struct {
	Cron    string
	Source  string
	Address string
	Now     bool
	Version string
}

// Command creates the schedule command. version is reported by /health.
func Command(version string) *cobra.Command {
	opts := Options{Version: version}

	cmd := &cobra.Command{
		Use:   "schedule <sources.yml>",
		Short: "Run the pipeline on a cron schedule",
		Long: `Schedule runs extract, transform and load on a cron expression until
interrupted. A tick that fires while the previous run is still going is skipped.
/health and /metrics are served on --address while the scheduler runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			if opts.Cron == "" {
				opts.Cron = deps.Config.Scheduler.Cron
			}
			if opts.Address == "" {
				opts.Address = deps.Config.Scheduler.Address
			}

			app, err := common.NewApp(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer func() {
				_ = app.Close()
				_ = app.Logger.Sync()
			}()

			return Serve(cmd.Context(), app, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Cron, "cron", "", `cron expression, e.g. "0 6 * * *" (default from config)`)
	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "run a single source by name")
	cmd.Flags().StringVar(&opts.Address, "address", "", "health and metrics listen address (default from config)")
	cmd.Flags().BoolVar(&opts.Now, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}

// Serve runs the scheduler and HTTP server until ctx is done.
func Serve(ctx context.Context, app *common.App, sourcesPath string, opts Options) error {
	runner := app.Runner(sourcesPath)
	log := app.Logger.With(logger.String("cron", opts.Cron))

	sched, err := scheduler.New(opts.Cron, func(ctx context.Context) error {
		return runner.Run(ctx, opts.Source)
	}, log)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Config{
		Address:         opts.Address,
		Version:         opts.Version,
		Debug:           app.Config.App.Debug,
		ShutdownTimeout: app.Config.Scheduler.ShutdownTimeout,
	}, log, app.Gatherer, map[string]api.Checker{
		"ledger": app.DB.PingContext,
	})
	errCh := server.StartAsync()

	sched.Start(ctx)
	if opts.Now {
		go sched.Trigger()
	}

	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	//nolint:contextcheck // ctx is already canceled here
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Scheduler.ShutdownTimeout)
	defer cancel()

	if stopErr := sched.Stop(shutdownCtx); stopErr != nil {
		log.Warn("scheduler did not stop cleanly", logger.Error(stopErr))
	}
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}
