package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Value int      `json:"value"`
	Path  []string `json:"path"`
}

func step(name string) NodeFunc[counter] {
	return func(_ context.Context, s counter) (counter, error) {
		s.Value++
		s.Path = append(s.Path, name)
		return s, nil
	}
}

func TestAddNode_Panics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"empty id", func() { New[counter]().AddNode("", step("x")) }},
		{"reserved END", func() { New[counter]().AddNode("END", step("x")) }},
		{"reserved __end__", func() { New[counter]().AddNode("__end__", step("x")) }},
		{"whitespace", func() { New[counter]().AddNode("a b", step("x")) }},
		{"nil fn", func() { New[counter]().AddNode("a", nil) }},
		{"duplicate", func() {
			New[counter]().AddNode("a", step("a")).AddNode("a", step("a"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, tt.fn)
		})
	}
}

func TestCompile_Validation(t *testing.T) {
	t.Run("no entry point", func(t *testing.T) {
		_, err := New[counter]().AddNode("a", step("a")).AddEdge("a", END).Compile()
		assert.ErrorIs(t, err, ErrNoEntryPoint)
	})

	t.Run("entry not found", func(t *testing.T) {
		_, err := New[counter]().AddNode("a", step("a")).AddEdge("a", END).SetEntry("zzz").Compile()
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("unknown edge target", func(t *testing.T) {
		_, err := New[counter]().
			AddNode("a", step("a")).
			AddEdge("a", "missing").
			SetEntry("a").
			Compile()
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})

	t.Run("no path to end", func(t *testing.T) {
		_, err := New[counter]().
			AddNode("a", step("a")).
			AddNode("b", step("b")).
			AddEdge("a", "b").
			AddEdge("b", "a").
			SetEntry("a").
			Compile()
		assert.ErrorIs(t, err, ErrNoPathToEnd)
	})

	t.Run("valid graph", func(t *testing.T) {
		cg, err := New[counter]().
			AddNode("a", step("a")).
			AddNode("b", step("b")).
			AddEdge("a", "b").
			AddEdge("b", END).
			SetEntry("a").
			Compile()
		require.NoError(t, err)
		assert.NotNil(t, cg)
	})

	t.Run("conditional edge counts as path to end", func(t *testing.T) {
		_, err := New[counter]().
			AddNode("a", step("a")).
			AddConditionalEdge("a", func(_ context.Context, s counter) string { return END }).
			SetEntry("a").
			Compile()
		assert.NoError(t, err)
	})
}

func TestCompile_ForkValidation(t *testing.T) {
	t.Run("branches joining at same node", func(t *testing.T) {
		cg, err := New[counter]().
			AddNode("fork", step("fork")).
			AddNode("left", step("left")).
			AddNode("right", step("right")).
			AddNode("join", step("join")).
			AddEdge("fork", "left").
			AddEdge("fork", "right").
			AddEdge("left", "join").
			AddEdge("right", "join").
			AddEdge("join", END).
			SetEntry("fork").
			Compile()
		require.NoError(t, err)
		require.Contains(t, cg.forks, "fork")
		assert.Equal(t, "join", cg.forks["fork"].joinID)
	})

	t.Run("branches joining at END", func(t *testing.T) {
		cg, err := New[counter]().
			AddNode("fork", step("fork")).
			AddNode("left", step("left")).
			AddNode("right", step("right")).
			AddEdge("fork", "left").
			AddEdge("fork", "right").
			AddEdge("left", END).
			AddEdge("right", END).
			SetEntry("fork").
			Compile()
		require.NoError(t, err)
		assert.Equal(t, END, cg.forks["fork"].joinID)
	})

	t.Run("branches diverging", func(t *testing.T) {
		_, err := New[counter]().
			AddNode("fork", step("fork")).
			AddNode("left", step("left")).
			AddNode("right", step("right")).
			AddNode("j1", step("j1")).
			AddNode("j2", step("j2")).
			AddEdge("fork", "left").
			AddEdge("fork", "right").
			AddEdge("left", "j1").
			AddEdge("left", "j2"). // left is a nested fork
			AddEdge("right", "j1").
			AddEdge("j1", END).
			AddEdge("j2", END).
			SetEntry("fork").
			Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nested fork")
	})

	t.Run("branch with conditional node rejected", func(t *testing.T) {
		_, err := New[counter]().
			AddNode("fork", step("fork")).
			AddNode("left", step("left")).
			AddNode("right", step("right")).
			AddEdge("fork", "left").
			AddEdge("fork", "right").
			AddConditionalEdge("left", func(_ context.Context, s counter) string { return END }).
			AddEdge("right", END).
			SetEntry("fork").
			Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "conditional")
	})
}
