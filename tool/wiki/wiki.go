// Package wiki looks up background facts through the Wikipedia opensearch
// API.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/planweave/planweave/tool"
)

const defaultBaseURL = "https://en.wikipedia.org/w/api.php"

// Entry is a single opensearch hit.
type Entry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Options configure the client.
type Options struct {
	// BaseURL overrides the API endpoint. Used in tests.
	BaseURL string
	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
	// Limit caps results per query. Defaults to 5.
	Limit int
}

// Client queries the opensearch API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limit      int
}

// New creates a wiki client.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Limit:      5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	return &Client{baseURL: opts.BaseURL, httpClient: opts.HTTPClient, limit: opts.Limit}
}

// Search performs an opensearch query. The API answers with a positional
// JSON array: [query, titles, descriptions, urls].
func (c *Client) Search(ctx context.Context, query string) ([]Entry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	params := url.Values{
		"action": {"opensearch"},
		"format": {"json"},
		"limit":  {fmt.Sprint(c.limit)},
		"search": {query},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create wiki request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wiki request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wiki returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read wiki response: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode wiki response: %w", err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("unexpected wiki response shape")
	}

	var titles, descriptions, urls []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, fmt.Errorf("decode wiki titles: %w", err)
	}
	if err := json.Unmarshal(raw[2], &descriptions); err != nil {
		return nil, fmt.Errorf("decode wiki descriptions: %w", err)
	}
	if err := json.Unmarshal(raw[3], &urls); err != nil {
		return nil, fmt.Errorf("decode wiki urls: %w", err)
	}

	entries := make([]Entry, 0, len(titles))
	for i, title := range titles {
		e := Entry{Title: title}
		if i < len(descriptions) {
			e.Description = descriptions[i]
		}
		if i < len(urls) {
			e.URL = urls[i]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Tool wraps the client as a callable tool.
func (c *Client) Tool() tool.Tool {
	type args struct {
		Query string `json:"query" description:"The topic to look up"`
	}
	return tool.NewFunctionToolFromStruct(
		"wiki_search",
		"Look up a topic on Wikipedia and return matching article titles and links",
		args{},
		func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			entries, err := c.Search(ctx, query)
			if err != nil {
				return nil, err
			}
			if len(entries) == 0 {
				return "No Wikipedia articles found for: " + query, nil
			}
			var sb strings.Builder
			for _, e := range entries {
				fmt.Fprintf(&sb, "- %s (%s)", e.Title, e.URL)
				if e.Description != "" {
					fmt.Fprintf(&sb, ": %s", e.Description)
				}
				sb.WriteString("\n")
			}
			return sb.String(), nil
		},
	)
}
