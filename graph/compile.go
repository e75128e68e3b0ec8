package graph

import (
	"errors"
	"fmt"
)

// fork describes a node whose multiple outgoing edges run as parallel
// branches converging at a join node. Computed at compile time.
type fork struct {
	nodeID   string
	branches []string
	joinID   string // node where all branches converge, possibly END
}

// CompiledGraph is the immutable, runnable form of a Graph. Safe for
// concurrent use; a single CompiledGraph can serve many Runs.
type CompiledGraph[S any] struct {
	nodes            map[string]NodeFunc[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string
	forks            map[string]*fork
}

// Compile validates the graph and returns an executable CompiledGraph.
// All validation errors are joined so callers see every problem at once.
//
// Checks:
//  1. Entry point is set and references an existing node
//  2. Edge sources and targets reference existing nodes or END
//  3. A path from the entry point to END exists
//  4. Every fork's branches are linear paths converging at one join node
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := g.nodes[g.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	for from, targets := range g.edges {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: edge source %q", ErrNodeNotFound, from))
		}
		for _, to := range targets {
			if to == END {
				continue
			}
			if _, exists := g.nodes[to]; !exists {
				errs = append(errs, fmt.Errorf("%w: edge target %q", ErrNodeNotFound, to))
			}
		}
	}
	for from := range g.conditionalEdges {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source %q", ErrNodeNotFound, from))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if !g.hasPathToEnd() {
		errs = append(errs, ErrNoPathToEnd)
	}

	forks, forkErrs := g.computeForks()
	errs = append(errs, forkErrs...)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &CompiledGraph[S]{
		nodes:            copyMap(g.nodes),
		edges:            copyEdges(g.edges),
		conditionalEdges: copyMap(g.conditionalEdges),
		entryPoint:       g.entryPoint,
		forks:            forks,
	}, nil
}

// hasPathToEnd runs a reverse reachability pass. Nodes with a conditional
// edge are assumed able to reach END since their router may return it.
func (g *Graph[S]) hasPathToEnd() bool {
	canReachEnd := map[string]bool{END: true}
	for from := range g.conditionalEdges {
		canReachEnd[from] = true
	}

	for changed := true; changed; {
		changed = false
		for from, targets := range g.edges {
			if canReachEnd[from] {
				continue
			}
			for _, to := range targets {
				if canReachEnd[to] {
					canReachEnd[from] = true
					changed = true
					break
				}
			}
		}
	}
	return canReachEnd[g.entryPoint]
}

// computeForks finds nodes with multiple unconditional edges and validates
// that their branches are linear paths converging at a single join node.
// Richer DAG shapes are rejected at compile time rather than producing
// surprising merge behavior at run time.
func (g *Graph[S]) computeForks() (map[string]*fork, []error) {
	forks := make(map[string]*fork)
	var errs []error

	for from, targets := range g.edges {
		if len(targets) <= 1 {
			continue
		}
		if _, conditional := g.conditionalEdges[from]; conditional {
			errs = append(errs, fmt.Errorf(
				"graph: node %q has both multiple edges and a conditional edge", from))
			continue
		}

		joinID, err := g.commonJoin(from, targets)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		branches := make([]string, len(targets))
		copy(branches, targets)
		forks[from] = &fork{nodeID: from, branches: branches, joinID: joinID}
	}
	return forks, errs
}

// commonJoin follows each branch's linear path until the paths converge.
func (g *Graph[S]) commonJoin(forkID string, branches []string) (string, error) {
	join := ""
	for _, branch := range branches {
		end, err := g.branchEnd(forkID, branch)
		if err != nil {
			return "", err
		}
		if join == "" {
			join = end
		} else if join != end {
			return "", fmt.Errorf(
				"graph: branches of fork %q converge at different nodes (%q vs %q)",
				forkID, join, end)
		}
	}
	return join, nil
}

// branchEnd walks a branch until a node with multiple successors, a
// conditional edge, or END. The walk is bounded by the node count since a
// linear path cannot revisit nodes.
func (g *Graph[S]) branchEnd(forkID, start string) (string, error) {
	// A branch target that several edges point at is itself the join.
	if start != END && g.inDegree(start) > 1 {
		return start, nil
	}
	current := start
	for steps := 0; steps <= len(g.nodes); steps++ {
		if current == END {
			return END, nil
		}
		if _, conditional := g.conditionalEdges[current]; conditional {
			return "", fmt.Errorf(
				"graph: branch %q of fork %q contains conditional node %q", start, forkID, current)
		}
		targets := g.edges[current]
		switch len(targets) {
		case 0:
			return "", fmt.Errorf(
				"graph: branch %q of fork %q dead-ends at node %q", start, forkID, current)
		case 1:
			// Convergence point: a node another branch also reaches.
			if g.inDegree(targets[0]) > 1 || targets[0] == END {
				return targets[0], nil
			}
			current = targets[0]
		default:
			return "", fmt.Errorf(
				"graph: branch %q of fork %q contains nested fork %q", start, forkID, current)
		}
	}
	return "", fmt.Errorf("graph: branch %q of fork %q does not terminate", start, forkID)
}

func (g *Graph[S]) inDegree(nodeID string) int {
	count := 0
	for _, targets := range g.edges {
		for _, to := range targets {
			if to == nodeID {
				count++
			}
		}
	}
	return count
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyEdges(src map[string][]string) map[string][]string {
	dst := make(map[string][]string, len(src))
	for k, v := range src {
		targets := make([]string, len(v))
		copy(targets, v)
		dst[k] = targets
	}
	return dst
}
