// Package etl implements the run, extract, transform and load commands.
package etl

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/webetl/cmd/common"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/storage"
)

// RunCommand runs extract, transform and load in sequence.
func RunCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "run <sources.yml>",
		Short: "Extract, transform and load every declared source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			return app.Runner(args[0]).Run(cmd.Context(), source)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "run a single source by name")
	return cmd
}

// ExtractCommand runs navigation and extraction only.
func ExtractCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "extract <sources.yml>",
		Short: "Crawl sources and write raw documents",
		Long: `Extract compiles the sources file into jobs, resolves each job's navigation
chain and extracts every URL the source has not harvested yet. Results are
written to data/raw/<date>/<source>.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			jobs, err := app.Sources(args[0]).Load(source)
			if err != nil {
				return fmt.Errorf("load sources: %w", err)
			}

			results, err := app.Extractor().Run(cmd.Context(), jobs)
			if err != nil {
				return err
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new pages\n", r.Source, len(r.Pages))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "extract a single source by name")
	return cmd
}

// TransformCommand moves a day's raw documents to silver.
func TransformCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transform [YYYY-MM-DD]",
		Short: "Apply LLM steps to raw documents (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dayArg(args)
			if err != nil {
				return err
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			n, err := app.Transformer().Run(cmd.Context(), day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d silver documents written for %s\n", n, day)
			return nil
		},
	}
}

// LoadCommand publishes a day's silver documents to gold.
func LoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load [YYYY-MM-DD]",
		Short: "Write gold XML and JSON outputs (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := dayArg(args)
			if err != nil {
				return err
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			n, err := app.Loader().Run(cmd.Context(), day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d gold files written for %s\n", n, day)
			return nil
		},
	}
}

func newApp(cmd *cobra.Command) (*common.App, error) {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return nil, fmt.Errorf("failed to get dependencies: %w", err)
	}
	return common.NewApp(cmd.Context(), deps)
}

func closeApp(app *common.App) {
	if err := app.Close(); err != nil {
		app.Logger.Warn("failed to close ledger", logger.Error(err))
	}
	_ = app.Logger.Sync()
}

func dayArg(args []string) (string, error) {
	if len(args) == 0 {
		return storage.ParseDay("", time.Now())
	}
	return storage.ParseDay(args[0], time.Now())
}
