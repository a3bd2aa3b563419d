package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/duosync/internal/config"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"sync", "watch", "bot", "export"})
	assert.NotNil(t, root.PersistentFlags().Lookup("db"))
	assert.NotNil(t, root.PersistentFlags().Lookup("driver"))
}

func TestExportCmd_EmptyCollection(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATA_DIR", dir)
	out := filepath.Join(dir, "words.csv")

	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"--db", filepath.Join(dir, "collection.db"), "export", out})

	require.NoError(t, root.Execute())
	assert.Equal(t, "Exported 0 notes to "+out+"\n", stdout.String())
	assert.FileExists(t, out)
}

func TestRootCmd_FlagsOverrideInvalidDatabaseConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "")
	out := filepath.Join(dir, "words.csv")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--driver", "sqlite3", "--db", filepath.Join(dir, "collection.db"), "export", out})

	require.NoError(t, root.Execute())
	assert.FileExists(t, out)
}

func TestRootCmd_DBFlagSuppliesPostgresDSN(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "")

	root := newRootCmd()
	root.SetArgs([]string{"--db", "postgres://duosync@127.0.0.1:1/duosync?sslmode=disable&connect_timeout=1", "export", "words.csv"})

	err := root.Execute()
	require.Error(t, err, "nothing listens on port 1")
	assert.NotContains(t, err.Error(), "DATABASE_DSN is required")
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestWatchCmd_RequiresCredentials(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("DUOLINGO_USERNAME", "")
	t.Setenv("DUOLINGO_PASSWORD", "")

	root := newRootCmd()
	root.SetArgs([]string{"watch"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUOLINGO_USERNAME")
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Import = config.ImportConfig{Tag: "duo", ModelName: "Duo", DeckName: "Spanish"}
	cfg.Duolingo.BaseURL = "http://localhost:1"
	cfg.Duolingo.RequestsPerSec = 5

	opts := importOptions(cfg)
	assert.Equal(t, "duo", opts.Tag)
	assert.Equal(t, "Duo", opts.ModelName)
	assert.Equal(t, "Spanish", opts.DeckName)

	d := duolingoOptions(cfg)
	assert.Equal(t, "http://localhost:1", d.BaseURL)
	assert.Equal(t, 5.0, d.RequestsPerSec)
}
