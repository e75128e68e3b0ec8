// Package agents registers the built-in workflows behind stable string
// IDs so the CLI and facade can list and run them uniformly.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/planweave/planweave/checkpoint"
	"github.com/planweave/planweave/config"
	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/logging"
	"github.com/planweave/planweave/memory"
	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/observability"
	"github.com/planweave/planweave/session"
)

// DefaultID is the agent run when no ID is given.
const DefaultID = "marketing"

// Env carries the shared runtime dependencies an agent run may use.
type Env struct {
	Model       model.Model
	Logger      logging.Logger
	Sessions    session.Store
	Memory      memory.Store
	Checkpoints checkpoint.Store

	// Tools carries the configured limits for the web-backed tools. The
	// zero value falls back to the package defaults.
	Tools config.ToolsConfig

	// Metrics and Tracer instrument runs when non-nil.
	Metrics observability.MetricsRecorder
	Tracer  observability.Tracer
}

// emit returns an event sink recording into the session store when one is
// configured.
func (e Env) emit(ctx context.Context) func(core.Event) {
	if e.Sessions == nil {
		return nil
	}
	return session.Recorder(ctx, e.Sessions, func(err error) {
		if e.Logger != nil {
			e.Logger.Warn("agents.session.append_failed", "error", err.Error())
		}
	})
}

// RunFunc executes one agent workflow. The inputs map carries the
// CLI/facade parameters; implementations coerce and validate what they
// need. The returned string is the human-readable result.
type RunFunc func(ctx context.Context, env Env, inputs map[string]any) (string, error)

// ResumeFunc restarts a checkpointed run from its latest checkpoint.
type ResumeFunc func(ctx context.Context, env Env, runID string) (string, error)

// Info describes a registered agent.
type Info struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Registration binds an Info to its runner.
type Registration struct {
	Info
	Run RunFunc

	// Resume is nil for agents without checkpointed graph runs.
	Resume ResumeFunc
}

// Registry maps agent IDs to registrations.
type Registry struct {
	agents map[string]Registration
}

// NewRegistry returns a registry with all built-in agents registered.
func NewRegistry() *Registry {
	r := &Registry{agents: make(map[string]Registration)}
	for _, reg := range builtins() {
		// Built-in IDs are unique by construction.
		_ = r.Register(reg)
	}
	return r
}

// Register adds an agent. Duplicate IDs are rejected.
func (r *Registry) Register(reg Registration) error {
	if reg.ID == "" {
		return fmt.Errorf("agents: registration needs an ID")
	}
	if reg.Run == nil {
		return fmt.Errorf("agents: registration %q needs a run function", reg.ID)
	}
	if _, exists := r.agents[reg.ID]; exists {
		return fmt.Errorf("agents: %q already registered", reg.ID)
	}
	r.agents[reg.ID] = reg
	return nil
}

// Get resolves an agent by ID. The empty ID resolves to DefaultID.
func (r *Registry) Get(id string) (Registration, error) {
	if id == "" {
		id = DefaultID
	}
	reg, ok := r.agents[id]
	if !ok {
		return Registration{}, fmt.Errorf("agents: unknown agent %q", id)
	}
	return reg, nil
}

// Infos lists all registered agents sorted by ID.
func (r *Registry) Infos() []Info {
	infos := make([]Info, 0, len(r.agents))
	for _, reg := range r.agents {
		infos = append(infos, reg.Info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// stringInput reads a string parameter.
func stringInput(inputs map[string]any, key string) string {
	if v, ok := inputs[key].(string); ok {
		return v
	}
	return ""
}

// intInput reads an int parameter, tolerating float64 (JSON) and string
// (CLI flag) encodings.
func intInput(inputs map[string]any, key string) int {
	switch v := inputs[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return 0
}

// asJSON renders a result value for agents whose natural output is
// structured.
func asJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("agents: encode result: %w", err)
	}
	return string(data), nil
}
