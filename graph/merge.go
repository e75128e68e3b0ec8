package graph

import (
	"encoding/json"
	"fmt"
)

// Merger is an optional interface for state types that control how state
// is copied into parallel branches and combined when they rejoin.
//
// Without it, the executor clones via JSON round-tripping and keeps the
// pre-fork state on join, discarding branch updates. Workflow states whose
// forks matter implement Merger with the core reducers:
//
//	func (s State) Clone(branchID string) State { return s }
//
//	func (s State) Merge(branches map[string]State) State {
//	    for _, b := range branches {
//	        s.Keywords = core.AppendUnique(s.Keywords, b.Keywords)
//	        s.Results = core.Append(s.Results, b.Results)
//	    }
//	    return s
//	}
type Merger[S any] interface {
	// Clone creates an independent copy of the state for a branch.
	Clone(branchID string) S

	// Merge combines completed branch states. The receiver is the state
	// at the fork point; branches maps branch ID to its final state.
	Merge(branches map[string]S) S
}

// cloneState copies state for a branch, preferring Merger.Clone.
func cloneState[S any](state S, branchID string) (S, error) {
	if m, ok := any(state).(Merger[S]); ok {
		return m.Clone(branchID), nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("clone state for branch %s: marshal: %w", branchID, err)
	}
	var clone S
	if err := json.Unmarshal(data, &clone); err != nil {
		var zero S
		return zero, fmt.Errorf("clone state for branch %s: unmarshal: %w", branchID, err)
	}
	return clone, nil
}

// mergeStates combines branch states, preferring Merger.Merge. The
// fallback keeps the fork-point state untouched; without a Merger there is
// no way to know how branch updates should combine.
func mergeStates[S any](original S, branches map[string]S) S {
	if m, ok := any(original).(Merger[S]); ok {
		return m.Merge(branches)
	}
	return original
}
