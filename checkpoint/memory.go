package checkpoint

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps checkpoints in process memory. Intended for tests and
// short-lived runs; state is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string][]Checkpoint
	closed bool
}

// NewMemoryStore creates an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]Checkpoint)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if cp.Sequence == 0 {
		cp.Sequence = len(s.runs[cp.RunID]) + 1
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	// Copy the state so callers can reuse their buffer.
	state := make([]byte, len(cp.State))
	copy(state, cp.State)
	cp.State = state

	s.runs[cp.RunID] = append(s.runs[cp.RunID], cp)
	return nil
}

// Latest implements Store.
func (s *MemoryStore) Latest(_ context.Context, runID string) (Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Checkpoint{}, ErrStoreClosed
	}

	cps := s.runs[runID]
	if len(cps) == 0 {
		return Checkpoint{}, ErrNotFound
	}
	return cps[len(cps)-1], nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, runID string) ([]Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	out := make([]Checkpoint, len(s.runs[runID]))
	copy(out, s.runs[runID])
	return out, nil
}

// DeleteRun implements Store.
func (s *MemoryStore) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	delete(s.runs, runID)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
