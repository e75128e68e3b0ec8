package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/core"
)

var _ Store = (*SQLiteStore)(nil)

func TestSQLiteStore_AppendAndEvents(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	first := core.NewTaskOutputEvent("run-1", "find_candidate_cities", "Smithville and Laketon")
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, core.NewStatusEvent("run-1", "crew", "run complete")))
	require.NoError(t, store.Append(ctx, core.NewStatusEvent("run-2", "crew", "started")))

	events, err := store.Events(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first.ID, events[0].ID)
	assert.Equal(t, core.EventTaskOutput, events[0].Kind)
	assert.Equal(t, "Smithville and Laketon", events[0].Data["output"])
	assert.Equal(t, "run complete", events[1].Message)
	assert.True(t, events[0].Timestamp.Equal(first.Timestamp))

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-2"}, runs)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, core.NewStatusEvent("run-1", "marketing", "done")))
	require.NoError(t, store.Close())

	// A later process sees the recorded history.
	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	events, err := reopened.Events(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "done", events[0].Message)
}

func TestSQLiteStore_UnknownRun(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Events(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_DeleteRun(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, core.NewStatusEvent("run-1", "crew", "x")))
	require.NoError(t, store.DeleteRun(ctx, "run-1"))
	_, err = store.Events(ctx, "run-1")
	assert.ErrorIs(t, err, ErrRunNotFound)

	// Deleting an unknown run is not an error.
	require.NoError(t, store.DeleteRun(ctx, "never-existed"))
}

func TestSQLiteStore_Closed(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Append(context.Background(), core.Event{RunID: "r"}), ErrStoreClosed)
	_, err = store.Runs(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)
}
