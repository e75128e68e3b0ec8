package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/config"
	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/session"
)

func TestInputs_OmitsZeroValues(t *testing.T) {
	flags := &cliFlags{
		url:         "https://example.test",
		maxPersonas: 3,
		budget:      0,
	}
	in := flags.inputs()
	assert.Equal(t, "https://example.test", in["url"])
	assert.Equal(t, 3, in["max_personas"])
	_, hasBudget := in["budget"]
	assert.False(t, hasBudget)
	_, hasMajor := in["major"]
	assert.False(t, hasMajor)
}

func TestListCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"list"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "marketing")
	assert.Contains(t, out.String(), "vacationhouse")
}

func TestEventsCommand_ReadsPersistedRuns(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sessions.db")

	// A run recorded by an earlier process.
	store, err := session.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(),
		core.NewStatusEvent("run-1", "crew", "run complete")))
	require.NoError(t, store.Close())

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("provider: mock\nsession_path: %s\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"events", "run-1", "--config", cfgPath})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "run complete")
}

func TestBuildModel(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "mock"
	m, err := buildModel(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", m.Info().Provider)

	cfg.Provider = "bogus"
	_, err = buildModel(cfg)
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, slogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, slogLevel("warn"))
	assert.Equal(t, slog.LevelError, slogLevel("error"))
	assert.Equal(t, slog.LevelInfo, slogLevel("info"))
	assert.Equal(t, slog.LevelInfo, slogLevel(""))
}
