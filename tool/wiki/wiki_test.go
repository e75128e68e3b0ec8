package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const opensearchResponse = `[
  "lake district",
  ["Lake District", "Lake District National Park"],
  ["Mountainous region in England", ""],
  ["https://en.wikipedia.org/wiki/Lake_District", "https://en.wikipedia.org/wiki/Lake_District_National_Park"]
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(func(o *Options) {
		o.BaseURL = server.URL + "/w/api.php"
		o.HTTPClient = server.Client()
	})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "opensearch", r.URL.Query().Get("action"))
		assert.Equal(t, "lake district", r.URL.Query().Get("search"))
		w.Write([]byte(opensearchResponse))
	})

	entries, err := c.Search(context.Background(), "lake district")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Lake District", entries[0].Title)
	assert.Equal(t, "Mountainous region in England", entries[0].Description)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Lake_District", entries[0].URL)
	assert.Empty(t, entries[1].Description)
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, err := New().Search(context.Background(), "")
	assert.Error(t, err)
}

func TestSearch_BadResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"nope"}`))
	})
	_, err := c.Search(context.Background(), "anything")
	assert.Error(t, err)
}

func TestTool(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(opensearchResponse))
	})

	tl := c.Tool()
	assert.Equal(t, "wiki_search", tl.Name())

	out, err := tl.Call(context.Background(), map[string]any{"query": "lake district"})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Lake District")
	assert.Contains(t, out.(string), "Mountainous region")
}
