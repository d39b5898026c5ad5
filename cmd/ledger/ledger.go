// Package ledger implements the commands that inspect and reset the fetch ledger.
package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/webetl/cmd/common"
	"github.com/jonesrussell/webetl/internal/database"
	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/storage"
)

const defaultFetchLimit = 100

// ErrResetTargetRequired is returned when reset-tracking is given conflicting targets.
var ErrResetTargetRequired = errors.New("choose one of a date, --source, --url or --all")

// FetchesCommand lists the most recent fetch records.
func FetchesCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fetches",
		Short: "Show recently fetched URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, repo database.FetchLedger) error {
				records, err := repo.Latest(ctx, limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No fetched URLs found")
					return nil
				}
				RenderFetches(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", defaultFetchLimit, "number of recent fetches to show")
	return cmd
}

// HasFetchedCommand reports whether a URL is in the ledger.
func HasFetchedCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "has-fetched <url>",
		Short: "Check whether a URL has been harvested",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, func(ctx context.Context, repo database.FetchLedger) error {
				fetched, err := repo.HasFetched(ctx, args[0], source)
				if err != nil {
					return err
				}
				scope := "any source"
				if source != "" {
					scope = source
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s fetched by %s: %t\n", args[0], scope, fetched)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "limit the check to one source")
	return cmd
}

// ResetOptions selects which fetch records to delete.
type ResetOptions struct {
	Date   string
	Source string
	URL    string
	All    bool
	Yes    bool
}

// ResetCommand deletes fetch records so their URLs are fetched again.
func ResetCommand() *cobra.Command {
	var opts ResetOptions

	cmd := &cobra.Command{
		Use:   "reset-tracking [YYYY-MM-DD]",
		Short: "Allow previously fetched URLs to be fetched again",
		Long: `Reset fetch tracking so URLs are re-fetched on the next run.

Examples:
  webetl reset-tracking                       # reset today's records
  webetl reset-tracking 2024-01-15            # reset one day
  webetl reset-tracking --source news         # reset one source
  webetl reset-tracking --url https://x/a.pdf # reset one URL, all sources
  webetl reset-tracking --all --yes           # reset everything`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Date = args[0]
			}
			return withLedger(cmd, func(ctx context.Context, repo database.FetchLedger) error {
				return Reset(ctx, repo, opts, cmd.InOrStdin(), cmd.OutOrStdout(), time.Now())
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "reset every record of a source (or scope --url to it)")
	cmd.Flags().StringVarP(&opts.URL, "url", "u", "", "reset one URL")
	cmd.Flags().BoolVar(&opts.All, "all", false, "reset the whole ledger")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// Reset applies opts to repo after asking for confirmation on in.
func Reset(ctx context.Context, repo database.FetchLedger, opts ResetOptions, in io.Reader, out io.Writer, now time.Time) error {
	targets := 0
	for _, set := range []bool{opts.Date != "", opts.URL != "", opts.All} {
		if set {
			targets++
		}
	}
	if targets > 1 || (opts.All && opts.Source != "") || (opts.Date != "" && opts.Source != "") {
		return ErrResetTargetRequired
	}

	var (
		describe string
		reset    func() (int64, error)
	)
	switch {
	case opts.All:
		describe = "all sources"
		reset = func() (int64, error) { return repo.ResetAll(ctx) }
	case opts.URL != "":
		describe = opts.URL
		if opts.Source != "" {
			describe += " for " + opts.Source
		}
		reset = func() (int64, error) { return repo.ResetByURL(ctx, opts.URL, opts.Source) }
	case opts.Source != "":
		describe = "source " + opts.Source
		reset = func() (int64, error) { return repo.ResetBySource(ctx, opts.Source) }
	default:
		day, err := storage.ParseDay(opts.Date, now)
		if err != nil {
			return err
		}
		date, _ := time.Parse(storage.DateLayout, day)
		describe = day
		reset = func() (int64, error) { return repo.ResetByDate(ctx, date) }
	}

	if !opts.Yes && !confirm(in, out, fmt.Sprintf("Reset fetch tracking for %s? URLs will be fetched again.", describe)) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	n, err := reset()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Reset tracking for %s: %d URLs can now be re-fetched\n", describe, n)
	return nil
}

// RenderFetches writes records as a table.
func RenderFetches(w io.Writer, records []domain.FetchRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Fetched At", "Source", "URL"})
	for _, r := range records {
		t.AppendRow(table.Row{r.FetchedAt.Format(time.RFC3339), r.SourceName, r.URL})
	}
	t.AppendFooter(table.Row{"", "Total", len(records)})
	t.Render()
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func withLedger(cmd *cobra.Command, fn func(ctx context.Context, repo database.FetchLedger) error) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to get dependencies: %w", err)
	}

	db, repo, err := common.OpenLedger(cmd.Context(), deps.Config.Ledger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(cmd.Context(), repo)
}
