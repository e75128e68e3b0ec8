package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the shared Store contract against an implementation.
func storeUnderTest(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Latest(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, Checkpoint{
		RunID:    "run-1",
		NodeID:   "analyze_site",
		NextNode: "create_personas",
		State:    []byte(`{"app_name":"BarGPT"}`),
	}))
	require.NoError(t, s.Save(ctx, Checkpoint{
		RunID:    "run-1",
		NodeID:   "create_personas",
		NextNode: "extract_keywords",
		State:    []byte(`{"app_name":"BarGPT","personas":[]}`),
	}))
	require.NoError(t, s.Save(ctx, Checkpoint{
		RunID:    "run-2",
		NodeID:   "build_query",
		NextNode: "search",
		State:    []byte(`{}`),
	}))

	latest, err := s.Latest(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "create_personas", latest.NodeID)
	assert.Equal(t, "extract_keywords", latest.NextNode)
	assert.Equal(t, 2, latest.Sequence)
	assert.False(t, latest.CreatedAt.IsZero())

	list, err := s.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Sequence)
	assert.Equal(t, "analyze_site", list[0].NodeID)
	assert.JSONEq(t, `{"app_name":"BarGPT"}`, string(list[0].State))

	require.NoError(t, s.DeleteRun(ctx, "run-1"))
	_, err = s.Latest(ctx, "run-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// run-2 untouched
	latest, err = s.Latest(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, "build_query", latest.NodeID)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Save(ctx, Checkpoint{RunID: "run-3"}), ErrStoreClosed)
	_, err = s.Latest(ctx, "run-2")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	storeUnderTest(t, s)
}

func TestSQLiteStore_ExplicitSequenceOverwrites(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Checkpoint{RunID: "r", Sequence: 1, NodeID: "a", NextNode: "b", State: []byte(`1`)}))
	require.NoError(t, s.Save(ctx, Checkpoint{RunID: "r", Sequence: 1, NodeID: "a", NextNode: "b", State: []byte(`2`)}))

	list, err := s.List(ctx, "r")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []byte(`2`), list[0].State)
}

func TestMemoryStore_CopiesState(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	buf := []byte(`{"a":1}`)
	require.NoError(t, s.Save(ctx, Checkpoint{RunID: "r", NodeID: "n", State: buf}))
	buf[0] = 'X'

	latest, err := s.Latest(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), latest.State[0])
}
