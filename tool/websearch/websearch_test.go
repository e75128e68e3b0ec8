package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div class="result results_links results_links_deep web-result">
  <h2 class="result__title">
    <a class="result__a" href="https://example.com/muskoka">Muskoka cottage towns</a>
  </h2>
  <a class="result__snippet" href="https://example.com/muskoka">The best <b>lake towns</b> in Ontario.</a>
</div>
<div class="result results_links results_links_deep web-result">
  <h2 class="result__title">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fkawartha&amp;rut=abc">Kawartha Lakes guide</a>
  </h2>
  <a class="result__snippet" href="https://example.org/kawartha">Waterfront living guide.</a>
</div>
</body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(func(o *Options) {
		o.BaseURL = server.URL + "/html/"
		o.HTTPClient = server.Client()
	})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lake towns ontario", r.URL.Query().Get("q"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Write([]byte(resultsPage))
	})

	results, err := c.Search(context.Background(), "lake towns ontario")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Muskoka cottage towns", results[0].Title)
	assert.Equal(t, "https://example.com/muskoka", results[0].URL)
	assert.Contains(t, results[0].Snippet, "lake towns")

	// Redirect links are unwrapped.
	assert.Equal(t, "https://example.org/kawartha", results[1].URL)
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := New()
	_, err := c.Search(context.Background(), "  ")
	assert.Error(t, err)
}

func TestSearch_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearch_MaxResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsPage))
	})
	// Force the cap below the page's result count.
	c.maxResults = 1

	results, err := c.Search(context.Background(), "lake towns")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestTool(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsPage))
	})

	tl := c.Tool()
	assert.Equal(t, "web_search", tl.Name())

	out, err := tl.Call(context.Background(), map[string]any{"query": "lake towns ontario"})
	require.NoError(t, err)
	text, ok := out.(string)
	require.True(t, ok)
	assert.Contains(t, text, "Muskoka cottage towns")
	assert.Contains(t, text, "https://example.org/kawartha")
}

func TestFormatResults_Empty(t *testing.T) {
	assert.Equal(t, "No results found for: x", FormatResults("x", nil))
}
