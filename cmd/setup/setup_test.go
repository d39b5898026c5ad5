package setup_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/webetl/cmd/setup"
	"github.com/jonesrussell/webetl/internal/extract"
	"github.com/jonesrussell/webetl/internal/load"
	"github.com/jonesrussell/webetl/internal/sources/loader"
	"github.com/jonesrussell/webetl/internal/transform"
)

func TestInit_Scaffold(t *testing.T) {
	root := t.TempDir()
	opts := setup.Options{
		Dir:         filepath.Join(root, "data"),
		SourcesFile: filepath.Join(root, "sources.yml"),
	}

	var out bytes.Buffer
	require.NoError(t, setup.Init(opts, &out))

	for _, dir := range []string{"jobs", "raw", "silver", "gold"} {
		info, err := os.Stat(filepath.Join(root, "data", dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.FileExists(t, filepath.Join(root, ".env.example"))

	ignore, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), "data/")
	assert.Contains(t, out.String(), "wrote "+opts.SourcesFile)
}

func TestInit_TemplateCompiles(t *testing.T) {
	root := t.TempDir()
	opts := setup.Options{
		Dir:         filepath.Join(root, "data"),
		SourcesFile: filepath.Join(root, "sources.yml"),
	}
	require.NoError(t, setup.Init(opts, &bytes.Buffer{}))

	jobs, err := loader.NewLoader(opts.SourcesFile, extract.NewDefaultRegistry(nil)).Load("")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	transformCfg, err := transform.DecodeConfig(jobs[0].DownstreamBlock(loader.TransformBlock))
	require.NoError(t, err)
	require.True(t, transformCfg.HasSteps())
	assert.Equal(t, "summary", transformCfg.LLM[0].Output)

	loadCfg, err := load.DecodeConfig(jobs[0].DownstreamBlock(loader.LoadBlock))
	require.NoError(t, err)
	require.NotNil(t, loadCfg.XML)
	assert.Equal(t, "abstract", loadCfg.XML.Fields[1].OutputName())

	assert.Nil(t, jobs[1].Downstream)
}

func TestInit_KeepsExistingFiles(t *testing.T) {
	root := t.TempDir()
	sources := filepath.Join(root, "sources.yml")
	require.NoError(t, os.WriteFile(sources, []byte("source: []\n"), 0o600))

	opts := setup.Options{Dir: filepath.Join(root, "data"), SourcesFile: sources}
	var out bytes.Buffer
	require.NoError(t, setup.Init(opts, &out))

	data, err := os.ReadFile(sources)
	require.NoError(t, err)
	assert.Equal(t, "source: []\n", string(data))
	assert.Contains(t, out.String(), "kept "+sources)

	opts.Force = true
	require.NoError(t, setup.Init(opts, &bytes.Buffer{}))
	data, err = os.ReadFile(sources)
	require.NoError(t, err)
	assert.Contains(t, string(data), "example-articles")
}
