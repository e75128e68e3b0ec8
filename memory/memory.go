// Package memory provides long-term storage that outlives a single run.
// Workflows save findings (researched topics, produced reports) and query
// them in later runs, e.g. to avoid researching the same trending topic
// twice. The interface is deliberately retrieval-shaped so a vector or
// embedding backed implementation can slot in behind it.
package memory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an entry ID does not exist.
var ErrNotFound = errors.New("memory: entry not found")

// Entry is one stored memory.
type Entry struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SearchResult pairs an entry with its relevance to a query.
type SearchResult struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// Store is long-term workflow memory. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save persists content with optional metadata and returns the
	// generated entry ID.
	Save(ctx context.Context, content string, metadata map[string]any) (string, error)

	// Search returns up to limit entries relevant to query, most relevant
	// first. An empty query matches nothing.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Delete removes an entry. Returns ErrNotFound for unknown IDs.
	Delete(ctx context.Context, id string) error
}
