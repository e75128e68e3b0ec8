// Package graph implements typed state-machine workflows. A Graph is built
// from named nodes connected by unconditional or conditional edges,
// compiled into an immutable CompiledGraph, and run with an initial state
// that flows through the nodes. Nodes with multiple outgoing edges fork
// into parallel branches that rejoin at a compile-time validated join node.
package graph

import (
	"context"
	"fmt"
	"strings"
)

// END is the terminal node identifier. Use it as an edge target or router
// result to finish the run.
const END = "__end__"

// NodeFunc is the signature for all node functions. Nodes receive the
// current state by value and return the updated state. State must be JSON
// serializable for checkpointing and branch cloning.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouterFunc picks the next node based on state. Return a node ID or END;
// an empty or unknown ID fails the run with a RouterError.
type RouterFunc[S any] func(ctx context.Context, state S) string

// Graph is a mutable builder for workflows. It is not safe for concurrent
// building; construct it in one goroutine and Compile before sharing.
//
// Example:
//
//	g := graph.New[state]().
//	    AddNode("search", searchNode).
//	    AddNode("rank", rankNode).
//	    AddEdge("search", "rank").
//	    AddEdge("rank", graph.END).
//	    SetEntry("search")
//
//	compiled, err := g.Compile()
type Graph[S any] struct {
	nodes            map[string]NodeFunc[S]
	edges            map[string][]string
	conditionalEdges map[string]RouterFunc[S]
	entryPoint       string
}

// New creates a graph builder for state type S.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:            make(map[string]NodeFunc[S]),
		edges:            make(map[string][]string),
		conditionalEdges: make(map[string]RouterFunc[S]),
	}
}

// AddNode registers a named node. Panics on an empty, reserved, whitespace
// or duplicate ID, or a nil function; builder misuse is a programming
// error, not a runtime condition.
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	if id == "" {
		panic("graph: node ID cannot be empty")
	}
	if lower := strings.ToLower(id); lower == "end" || lower == END {
		panic("graph: node ID cannot be the reserved END identifier")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("graph: node ID cannot contain whitespace")
	}
	if fn == nil {
		panic("graph: node function cannot be nil")
	}
	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("graph: duplicate node ID: %s", id))
	}
	g.nodes[id] = fn
	return g
}

// AddEdge adds an unconditional edge. The target can be a node ID or END.
// Adding more than one edge from the same node makes it a fork point;
// Compile validates that the branches converge. Edge references are
// validated at Compile time so edges can be added in any order.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge routes from a node through a RouterFunc evaluated at
// runtime. A node can have either plain edges or a conditional edge; the
// conditional edge takes precedence when both exist.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S]) *Graph[S] {
	if router == nil {
		panic("graph: router function cannot be nil")
	}
	g.conditionalEdges[from] = router
	return g
}

// SetEntry designates the entry point node. Must be called before Compile.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.entryPoint = id
	return g
}
