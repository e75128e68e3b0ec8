package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/planweave/planweave/checkpoint"
	"github.com/planweave/planweave/core"
)

// Run executes the graph from its entry point with the given initial
// state. On success it returns the state after the last node before END;
// on error it returns the state at the point of failure.
func (cg *CompiledGraph[S]) Run(ctx context.Context, state S, opts ...RunOption) (S, error) {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.checkpoints != nil && cfg.runID == "" {
		return state, ErrRunIDRequired
	}
	if cfg.runID == "" {
		cfg.runID = core.NewID()
	}
	return cg.runFrom(ctx, state, cg.entryPoint, &cfg)
}

func (cg *CompiledGraph[S]) runFrom(ctx context.Context, state S, startNode string, cfg *runConfig) (result S, runErr error) {
	start := time.Now()
	cfg.logger.Info("graph.run.start", "run_id", cfg.runID, "workflow", cfg.workflow, "entry", startNode)

	ctx, runSpan := cfg.tracer.StartRun(ctx, cfg.workflow, cfg.runID)
	defer func() {
		runSpan.End(runErr)
		duration := time.Since(start)
		cfg.metrics.RecordRun(ctx, cfg.workflow, runErr == nil, duration)
		if runErr != nil {
			cfg.logger.Error("graph.run.error", "run_id", cfg.runID, "error", runErr.Error(),
				"duration_ms", duration.Milliseconds())
			if cfg.emit != nil {
				cfg.emit(core.NewErrorEvent(cfg.runID, cfg.workflow, runErr))
			}
			return
		}
		cfg.logger.Info("graph.run.complete", "run_id", cfg.runID,
			"duration_ms", duration.Milliseconds())
	}()

	current := startNode
	for iterations := 0; current != END; iterations++ {
		if iterations >= cfg.maxIter {
			return state, &MaxIterationsError{Max: cfg.maxIter, LastNodeID: current}
		}
		if err := ctx.Err(); err != nil {
			return state, &CancellationError{NodeID: current, Cause: err}
		}

		if fork, ok := cg.forks[current]; ok {
			// The fork node itself runs first, then its branches.
			var err error
			state, err = cg.executeNode(ctx, current, state, cfg)
			if err != nil {
				return state, err
			}
			state, err = cg.executeFork(ctx, fork, state, cfg)
			if err != nil {
				return state, err
			}
			if saveErr := cg.saveCheckpoint(ctx, cfg, current, state, fork.joinID); saveErr != nil {
				return state, saveErr
			}
			current = fork.joinID
			continue
		}

		var err error
		state, err = cg.executeNode(ctx, current, state, cfg)
		if err != nil {
			return state, err
		}

		next, err := cg.nextNode(ctx, state, current)
		if err != nil {
			return state, err
		}

		if saveErr := cg.saveCheckpoint(ctx, cfg, current, state, next); saveErr != nil {
			return state, saveErr
		}

		current = next
	}
	return state, nil
}

// executeNode runs one node with panic recovery, logging, metrics and an
// optional completion event.
func (cg *CompiledGraph[S]) executeNode(ctx context.Context, nodeID string, state S, cfg *runConfig) (result S, err error) {
	fn, exists := cg.nodes[nodeID]
	if !exists {
		return state, &NodeError{NodeID: nodeID, Op: "lookup", Err: fmt.Errorf("node not found")}
	}

	cfg.logger.Debug("graph.node.start", "run_id", cfg.runID, "node", nodeID)
	nodeCtx, span := cfg.tracer.StartStep(ctx, nodeID)
	start := time.Now()

	defer func() {
		duration := time.Since(start)
		cfg.metrics.RecordStep(ctx, cfg.workflow, nodeID, duration, err)
		span.End(err)
		if err != nil {
			cfg.logger.Error("graph.node.error", "run_id", cfg.runID, "node", nodeID, "error", err.Error())
			return
		}
		cfg.logger.Info("graph.node.complete", "run_id", cfg.runID, "node", nodeID,
			"duration_ms", duration.Milliseconds())
		if cfg.emit != nil {
			ev := core.NewEvent(cfg.runID, nodeID, core.EventNodeComplete)
			ev.Message = nodeID
			cfg.emit(ev)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{NodeID: nodeID, Value: r, Stack: string(debug.Stack())}
		}
	}()

	result, err = fn(nodeCtx, state)
	if err != nil {
		err = &NodeError{NodeID: nodeID, Op: "execute", Err: err}
		return result, err
	}
	return result, nil
}

// executeFork clones the state into each branch, runs the branches
// concurrently and merges the results. Any branch failure cancels the
// remaining branches.
func (cg *CompiledGraph[S]) executeFork(ctx context.Context, f *fork, state S, cfg *runConfig) (S, error) {
	cfg.logger.Debug("graph.fork.start", "run_id", cfg.runID, "fork", f.nodeID,
		"branches", len(f.branches))
	start := time.Now()

	branchStates := make([]S, len(f.branches))
	g, branchCtx := errgroup.WithContext(ctx)
	for i, branchID := range f.branches {
		cloned, err := cloneState(state, branchID)
		if err != nil {
			return state, &ForkError{ForkNodeID: f.nodeID, BranchID: branchID, Err: err}
		}

		g.Go(func() error {
			final, err := cg.runBranch(branchCtx, branchID, cloned, f.joinID, cfg)
			if err != nil {
				return &ForkError{ForkNodeID: f.nodeID, BranchID: branchID, Err: err}
			}
			branchStates[i] = final
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return state, err
	}

	merged := make(map[string]S, len(f.branches))
	for i, branchID := range f.branches {
		merged[branchID] = branchStates[i]
	}
	state = mergeStates(state, merged)

	cfg.logger.Info("graph.fork.complete", "run_id", cfg.runID, "fork", f.nodeID,
		"join", f.joinID, "duration_ms", time.Since(start).Milliseconds())
	return state, nil
}

// runBranch executes a linear branch until the join node.
func (cg *CompiledGraph[S]) runBranch(ctx context.Context, branchID string, state S, joinID string, cfg *runConfig) (S, error) {
	current := branchID
	for iterations := 0; current != joinID && current != END; iterations++ {
		if iterations >= cfg.maxIter {
			return state, &MaxIterationsError{Max: cfg.maxIter, LastNodeID: current}
		}
		if err := ctx.Err(); err != nil {
			return state, &CancellationError{NodeID: current, Cause: err}
		}

		var err error
		state, err = cg.executeNode(ctx, current, state, cfg)
		if err != nil {
			return state, err
		}

		current, err = cg.nextNode(ctx, state, current)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

// nextNode resolves the node after current; conditional edges win.
func (cg *CompiledGraph[S]) nextNode(ctx context.Context, state S, current string) (string, error) {
	if router, exists := cg.conditionalEdges[current]; exists {
		next := router(ctx, state)
		if next == "" {
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrInvalidRouterResult}
		}
		if next != END {
			if _, exists := cg.nodes[next]; !exists {
				return "", &RouterError{FromNode: current, Returned: next, Err: ErrRouterTargetNotFound}
			}
		}
		return next, nil
	}

	edges := cg.edges[current]
	if len(edges) == 0 {
		return "", &NodeError{NodeID: current, Op: "routing", Err: fmt.Errorf("no outgoing edge")}
	}
	return edges[0], nil
}

// saveCheckpoint persists the post-node state when checkpointing is on.
func (cg *CompiledGraph[S]) saveCheckpoint(ctx context.Context, cfg *runConfig, nodeID string, state S, nextNode string) error {
	if cfg.checkpoints == nil {
		return nil
	}

	stateBytes, err := json.Marshal(state)
	if err != nil {
		return &CheckpointError{NodeID: nodeID, Op: "serialize", Err: err}
	}
	cp := checkpoint.Checkpoint{
		RunID:    cfg.runID,
		NodeID:   nodeID,
		NextNode: nextNode,
		State:    stateBytes,
	}
	if err := cfg.checkpoints.Save(ctx, cp); err != nil {
		return &CheckpointError{NodeID: nodeID, Op: "save", Err: err}
	}

	cfg.logger.Debug("graph.checkpoint.saved", "run_id", cfg.runID, "node", nodeID,
		"size_bytes", len(stateBytes))
	cfg.metrics.RecordCheckpoint(ctx, cfg.workflow, int64(len(stateBytes)))
	return nil
}
