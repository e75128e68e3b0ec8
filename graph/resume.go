package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/planweave/planweave/checkpoint"
	"github.com/planweave/planweave/core"
)

// Resume continues a checkpointed run from its latest saved state. The
// store and run ID must match the original Run; the rest of the options
// default the same way. A run whose latest checkpoint already points at
// END returns the saved state unchanged.
func (cg *CompiledGraph[S]) Resume(ctx context.Context, store checkpoint.Store, runID string, opts ...RunOption) (S, error) {
	var zero S
	if store == nil {
		return zero, fmt.Errorf("graph: resume requires a checkpoint store")
	}
	if runID == "" {
		return zero, ErrRunIDRequired
	}

	cp, err := store.Latest(ctx, runID)
	if err != nil {
		return zero, &CheckpointError{Op: "load", Err: fmt.Errorf("run %s: %w", runID, err)}
	}

	var state S
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return zero, &CheckpointError{NodeID: cp.NodeID, Op: "decode", Err: err}
	}

	cfg := defaultRunConfig()
	cfg.runID = runID
	cfg.checkpoints = store
	for _, opt := range opts {
		opt(&cfg)
	}

	if cp.NextNode == END || cp.NextNode == "" {
		cfg.logger.Info("graph.resume.already_complete", "run_id", runID, "node", cp.NodeID)
		return state, nil
	}
	if _, exists := cg.nodes[cp.NextNode]; !exists {
		return state, &CheckpointError{
			NodeID: cp.NextNode,
			Op:     "load",
			Err:    fmt.Errorf("checkpointed next node not in graph"),
		}
	}

	cfg.logger.Info("graph.resume.start", "run_id", runID, "from", cp.NextNode,
		"sequence", cp.Sequence)
	if cfg.emit != nil {
		cfg.emit(core.NewStatusEvent(runID, cfg.workflow, "resuming from "+cp.NextNode))
	}
	return cg.runFrom(ctx, state, cp.NextNode, &cfg)
}
