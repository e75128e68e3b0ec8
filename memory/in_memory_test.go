package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SaveAndSearch(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.Save(ctx, "Researched topic: AI regulation in Europe", map[string]any{"kind": "topic"})
	require.NoError(t, err)
	_, err = store.Save(ctx, "Researched topic: quantum computing startups", nil)
	require.NoError(t, err)

	results, err := store.Search(ctx, "quantum computing", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Entry.Content, "quantum")
	assert.Equal(t, 1.0, results[0].Score)
}

func TestInMemoryStore_SearchScoring(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.Save(ctx, "open source licensing disputes", nil)
	require.NoError(t, err)
	_, err = store.Save(ctx, "open weather data formats", nil)
	require.NoError(t, err)

	results, err := store.Search(ctx, "open source", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Full match ranks above partial.
	assert.Equal(t, "open source licensing disputes", results[0].Entry.Content)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.5, results[1].Score)
}

func TestInMemoryStore_SearchCaseInsensitive(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_, err := store.Save(ctx, "Kubernetes release notes", nil)
	require.NoError(t, err)

	results, err := store.Search(ctx, "KUBERNETES", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestInMemoryStore_SearchEmptyQuery(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Save(context.Background(), "something", nil)
	require.NoError(t, err)

	results, err := store.Search(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInMemoryStore_Recent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		_, err := store.Save(ctx, content, nil)
		require.NoError(t, err)
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Content)
	assert.Equal(t, "second", recent[1].Content)

	all, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	id, err := store.Save(ctx, "to be removed", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	assert.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
