package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/planweave/planweave/core"
)

// InMemoryStore is a process-local Store with keyword-overlap scoring.
// Search tokenizes both the query and stored content, lowercases the
// tokens and scores each entry by the fraction of query tokens it
// contains. Linear scan; fine for the entry counts a workflow process
// accumulates, swap for an indexed backend beyond that.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Save implements Store.
func (s *InMemoryStore) Save(_ context.Context, content string, metadata map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		ID:        core.NewID(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if len(metadata) > 0 {
		entry.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			entry.Metadata[k] = v
		}
	}
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

// Search implements Store.
func (s *InMemoryStore) Search(_ context.Context, query string, limit int) ([]SearchResult, error) {
	terms := tokenize(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for _, entry := range s.entries {
		tokens := tokenSet(entry.Content)
		matched := 0
		for _, term := range terms {
			if tokens[term] {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, SearchResult{
			Entry: entry,
			Score: float64(matched) / float64(len(terms)),
		})
	}

	// Ties break toward newer entries.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.CreatedAt.After(results[j].Entry.CreatedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Recent implements Store.
func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.entries {
		if entry.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range tokenize(text) {
		set[token] = true
	}
	return set
}
