// Package setup implements the init command, which scaffolds a working directory.
package setup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/webetl/cmd/common"
	"github.com/jonesrussell/webetl/internal/config"
	"github.com/jonesrussell/webetl/internal/storage"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrExists is returned when a scaffold file already exists and --force is not set.
var ErrExists = errors.New("file already exists")

// Options holds the init command flags.
type Options struct {
	Dir         string
	SourcesFile string
	Force       bool
}

// InitCommand creates the init command.
func InitCommand() *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sources file, data directories and the fetch ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			if opts.Dir == "" {
				opts.Dir = deps.Config.Data.Dir
			}

			if err = Init(opts, cmd.OutOrStdout()); err != nil {
				return err
			}

			db, _, err := common.OpenLedger(cmd.Context(), deps.Config.Ledger)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "ledger ready (%s)\n", deps.Config.Ledger.Driver)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "data-dir", "", "data directory (default from config)")
	cmd.Flags().StringVarP(&opts.SourcesFile, "name", "n", config.DefaultSourcesFile, "sources file to create")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing files")
	return cmd
}

// Init creates the data layers under opts.Dir and writes the template sources
// file, .env.example and .gitignore next to opts.SourcesFile. Existing files are
// kept unless opts.Force is set.
func Init(opts Options, out io.Writer) error {
	if opts.Dir == "" {
		opts.Dir = config.DefaultDataDir
	}
	if opts.SourcesFile == "" {
		opts.SourcesFile = config.DefaultSourcesFile
	}

	dirs := []string{filepath.Join(opts.Dir, "jobs")}
	for _, layer := range []storage.Layer{storage.LayerRaw, storage.LayerSilver, storage.LayerGold} {
		dirs = append(dirs, filepath.Join(opts.Dir, string(layer)))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		fmt.Fprintf(out, "created %s/\n", dir)
	}

	base := filepath.Dir(opts.SourcesFile)
	files := []struct {
		path    string
		content string
	}{
		{opts.SourcesFile, sourcesTemplate},
		{filepath.Join(base, ".env.example"), envTemplate},
		{filepath.Join(base, ".gitignore"), fmt.Sprintf(gitignoreTemplate, filepath.Base(opts.Dir))},
	}
	for _, f := range files {
		written, err := writeFile(f.path, f.content, opts.Force)
		if err != nil {
			return err
		}
		if written {
			fmt.Fprintf(out, "wrote %s\n", f.path)
		} else {
			fmt.Fprintf(out, "kept %s\n", f.path)
		}
	}
	return nil
}

func writeFile(path, content string, force bool) (bool, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, filePerm)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err = io.WriteString(f, content); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

const sourcesTemplate = `# Each source is compiled into one extraction job.
source:
  - name: example-articles
    start: https://example.com/news
    navigate:
      - ftype: html
        selector: //a[@class='article-link']/@href
        must_contain:
          - /news/
    extract_ftype: html
    extract:
      - name: title
        selector: /html/body/h1
      - name: body
        selector: //div[@id='article-body']
    transform:
      LLM:
        - name: summary
          input: [title, body]
          output: summary
          model: claude-3-5-haiku-latest
          prompt: Summarize the article in two sentences.
    load:
      xml:
        fields:
          - field: title
          - field: summary
            name: abstract

  - name: example-feed
    start: https://example.com/feed.xml
    extract_ftype: rss
    extract:
      - name: title
        selector: title
      - name: link
        selector: link
`

const envTemplate = `# Copy to .env and fill in.
ANTHROPIC_API_KEY=
LOG_LEVEL=info
WEBETL_LEDGER_DSN=
`

const gitignoreTemplate = `.env
%s/
*.db
`
