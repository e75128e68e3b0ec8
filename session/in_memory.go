package session

import (
	"context"
	"sort"
	"sync"

	"github.com/planweave/planweave/core"
)

// InMemoryStore is a volatile Store keeping run histories in a process
// local map. It is safe for concurrent access and best suited for tests,
// examples and short-lived CLI runs. Returned slices are copies so callers
// cannot mutate internal state.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]core.Event
}

// NewInMemoryStore constructs an empty in-memory event store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string][]core.Event)}
}

// Append implements Store.
func (s *InMemoryStore) Append(_ context.Context, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[ev.RunID] = append(s.runs[ev.RunID], ev)
	return nil
}

// Events implements Store.
func (s *InMemoryStore) Events(_ context.Context, runID string) ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events, ok := s.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	out := make([]core.Event, len(events))
	copy(out, events)
	return out, nil
}

// Runs implements Store. Run IDs are returned sorted for deterministic
// listings.
func (s *InMemoryStore) Runs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteRun implements Store.
func (s *InMemoryStore) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	return nil
}

// Recorder returns an emit function that appends every event to the store,
// suitable for graph.WithEmit or a crew's Emit option. Store errors are
// reported through onErr when non-nil, otherwise dropped.
func Recorder(ctx context.Context, store Store, onErr func(error)) func(core.Event) {
	return func(ev core.Event) {
		if err := store.Append(ctx, ev); err != nil && onErr != nil {
			onErr(err)
		}
	}
}
