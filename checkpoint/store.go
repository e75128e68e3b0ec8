// Package checkpoint persists graph run state so interrupted runs can be
// resumed from the last completed node.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// Checkpoint captures the serialized workflow state after a node completed.
type Checkpoint struct {
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`   // node that just executed
	NextNode  string    `json:"next_node"` // node a resumed run starts from
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	State     []byte    `json:"state"` // JSON encoded workflow state
}

// Store persists checkpoints. Implementations must be safe for concurrent
// use.
type Store interface {
	// Save stores a checkpoint, assigning the next sequence number for the
	// run when cp.Sequence is zero.
	Save(ctx context.Context, cp Checkpoint) error

	// Latest returns the most recent checkpoint for a run.
	// Returns ErrNotFound when the run has no checkpoints.
	Latest(ctx context.Context, runID string) (Checkpoint, error)

	// List returns all checkpoints for a run ordered by sequence.
	// Returns an empty slice (not an error) for unknown runs.
	List(ctx context.Context, runID string) ([]Checkpoint, error)

	// DeleteRun removes all checkpoints for a run. Unknown runs are a no-op.
	DeleteRun(ctx context.Context, runID string) error

	// Close releases held resources.
	Close() error
}

var (
	// ErrNotFound indicates no checkpoint exists for the run.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
