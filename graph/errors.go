package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEntryPoint indicates Compile was called without SetEntry.
	ErrNoEntryPoint = errors.New("graph: no entry point set")

	// ErrEntryNotFound indicates the entry point references no node.
	ErrEntryNotFound = errors.New("graph: entry point not found")

	// ErrNodeNotFound indicates an edge references a missing node.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrNoPathToEnd indicates no route from the entry point reaches END.
	ErrNoPathToEnd = errors.New("graph: no path from entry to END")

	// ErrInvalidRouterResult indicates a router returned an empty string.
	ErrInvalidRouterResult = errors.New("graph: router returned empty result")

	// ErrRouterTargetNotFound indicates a router returned an unknown node.
	ErrRouterTargetNotFound = errors.New("graph: router target not found")

	// ErrRunIDRequired indicates checkpointing was enabled without a run ID.
	ErrRunIDRequired = errors.New("graph: run ID required when checkpointing is enabled")
)

// NodeError wraps a failure inside a node function.
type NodeError struct {
	NodeID string
	Op     string // "execute", "lookup", "routing"
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// RouterError reports an invalid router result.
type RouterError struct {
	FromNode string
	Returned string
	Err      error
}

func (e *RouterError) Error() string {
	return fmt.Sprintf("router from %s returned %q: %v", e.FromNode, e.Returned, e.Err)
}

func (e *RouterError) Unwrap() error { return e.Err }

// MaxIterationsError indicates the run exceeded the iteration budget,
// usually a routing cycle that never reaches END.
type MaxIterationsError struct {
	Max        int
	LastNodeID string
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("exceeded %d iterations at node %s", e.Max, e.LastNodeID)
}

// CancellationError indicates the context was cancelled mid-run.
type CancellationError struct {
	NodeID string
	Cause  error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("run cancelled at node %s: %v", e.NodeID, e.Cause)
}

func (e *CancellationError) Unwrap() error { return e.Cause }

// PanicError wraps a recovered panic from a node function.
type PanicError struct {
	NodeID string
	Value  any
	Stack  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in node %s: %v", e.NodeID, e.Value)
}

// CheckpointError reports a fatal checkpoint failure.
type CheckpointError struct {
	NodeID string
	Op     string // "serialize", "save", "load", "decode"
	Err    error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s at node %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *CheckpointError) Unwrap() error { return e.Err }

// ForkError wraps a failure inside a parallel branch.
type ForkError struct {
	ForkNodeID string
	BranchID   string
	Err        error
}

func (e *ForkError) Error() string {
	return fmt.Sprintf("fork at %s (branch %s): %v", e.ForkNodeID, e.BranchID, e.Err)
}

func (e *ForkError) Unwrap() error { return e.Err }
