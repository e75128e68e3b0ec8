// Package planweave provides a high-level facade over the workflow
// registry and its supporting services (sessions, memory, checkpoints,
// logging). Most applications interact with this package by:
//  1. Creating a PlanWeave via New() (optionally overriding the default
//     in-memory services and registering custom agents)
//  2. Running an agent asynchronously (RunAgent) or synchronously
//     (RunAgentSync)
//  3. Resuming interrupted checkpointed runs (ResumeAgent)
//
// All defaults are safe for local development and testing; production
// deployments typically supply a SQLite checkpoint store and a structured
// logger.
package planweave

import (
	"context"
	"fmt"

	"github.com/planweave/planweave/agents"
	"github.com/planweave/planweave/checkpoint"
	"github.com/planweave/planweave/config"
	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/logging"
	"github.com/planweave/planweave/memory"
	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/observability"
	"github.com/planweave/planweave/session"
)

// Options configures the PlanWeave instance.
type Options struct {
	// Model drives every agent. Required.
	Model model.Model

	// Stores (default to in-memory implementations if not provided).
	SessionStore    session.Store
	MemoryStore     memory.Store
	CheckpointStore checkpoint.Store

	// Logger defaults to the NoOp logger.
	Logger logging.Logger

	// Tools tunes the web-backed tools the built-in agents construct.
	// Zero values keep each tool's own defaults.
	Tools config.ToolsConfig

	// Metrics and Tracer instrument runs, steps and model calls when set.
	Metrics observability.MetricsRecorder
	Tracer  observability.Tracer

	// Registry defaults to the built-in agents.
	Registry *agents.Registry

	// EventBufferSize sets the channel buffer for RunAgent event
	// streaming.
	EventBufferSize int
}

// PlanWeave is the high-level facade aggregating the agent registry and
// services.
type PlanWeave struct {
	opts     Options
	registry *agents.Registry
}

// New creates a PlanWeave instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(m model.Model, optFns ...func(o *Options)) (*PlanWeave, error) {
	if m == nil {
		return nil, fmt.Errorf("planweave: model is required")
	}
	opts := Options{
		Model:           m,
		SessionStore:    session.NewInMemoryStore(),
		MemoryStore:     memory.NewInMemoryStore(),
		CheckpointStore: checkpoint.NewMemoryStore(),
		Logger:          logging.NoOpLogger{},
		Tools:           config.Default().Tools,
		EventBufferSize: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = agents.NewRegistry()
	}
	return &PlanWeave{opts: opts, registry: opts.Registry}, nil
}

// Agents lists the registered agents.
func (p *PlanWeave) Agents() []agents.Info { return p.registry.Infos() }

// Register adds a custom agent to the registry.
func (p *PlanWeave) Register(reg agents.Registration) error {
	return p.registry.Register(reg)
}

// Sessions exposes the run event store, e.g. to replay a run's history.
func (p *PlanWeave) Sessions() session.Store { return p.opts.SessionStore }

func (p *PlanWeave) env() agents.Env {
	return agents.Env{
		Model:       p.opts.Model,
		Logger:      p.opts.Logger,
		Sessions:    p.opts.SessionStore,
		Memory:      p.opts.MemoryStore,
		Checkpoints: p.opts.CheckpointStore,
		Tools:       p.opts.Tools,
		Metrics:     p.opts.Metrics,
		Tracer:      p.opts.Tracer,
	}
}

// RunAgent starts an asynchronous run, returning the run ID, a stream of
// the run's events and an error channel that delivers at most one terminal
// error. Both channels close when the run finishes. The final result is
// carried by a closing status event whose Data holds "result".
func (p *PlanWeave) RunAgent(ctx context.Context, agentID string, inputs map[string]any) (string, <-chan core.Event, <-chan error, error) {
	reg, err := p.registry.Get(agentID)
	if err != nil {
		return "", nil, nil, err
	}

	runID := core.NewID()
	eventCh := make(chan core.Event, p.opts.EventBufferSize)
	errCh := make(chan error, 1)

	env := p.env()
	env.Sessions = &teeStore{Store: env.Sessions, events: eventCh}

	runInputs := make(map[string]any, len(inputs)+1)
	for k, v := range inputs {
		runInputs[k] = v
	}
	runInputs["run_id"] = runID

	go func() {
		defer close(eventCh)
		defer close(errCh)

		result, err := reg.Run(ctx, env, runInputs)
		if err != nil {
			errCh <- err
			return
		}
		done := core.NewStatusEvent(runID, reg.ID, "run complete")
		done.Data = map[string]any{"result": result}
		select {
		case eventCh <- done:
		case <-ctx.Done():
		}
	}()
	return runID, eventCh, errCh, nil
}

// RunAgentSync runs an agent to completion, draining the event stream. It
// returns the run ID, the agent's result and every event the run emitted.
func (p *PlanWeave) RunAgentSync(ctx context.Context, agentID string, inputs map[string]any) (string, string, []core.Event, error) {
	runID, eventCh, errCh, err := p.RunAgent(ctx, agentID, inputs)
	if err != nil {
		return "", "", nil, err
	}

	var (
		events []core.Event
		result string
	)
	for ev := range eventCh {
		events = append(events, ev)
		if ev.Kind == core.EventStatus && ev.Data != nil {
			if r, ok := ev.Data["result"].(string); ok {
				result = r
			}
		}
	}
	if err := <-errCh; err != nil {
		return runID, "", events, err
	}
	return runID, result, events, nil
}

// ResumeAgent restarts a checkpointed run from its latest checkpoint.
func (p *PlanWeave) ResumeAgent(ctx context.Context, agentID, runID string) (string, error) {
	reg, err := p.registry.Get(agentID)
	if err != nil {
		return "", err
	}
	if reg.Resume == nil {
		return "", fmt.Errorf("planweave: agent %q does not support resume", reg.ID)
	}
	return reg.Resume(ctx, p.env(), runID)
}

// teeStore forwards appended events to a channel while persisting them.
// A full channel never blocks the workflow; the session store remains the
// complete record.
type teeStore struct {
	session.Store
	events chan<- core.Event
}

func (t *teeStore) Append(ctx context.Context, ev core.Event) error {
	select {
	case t.events <- ev:
	default:
	}
	return t.Store.Append(ctx, ev)
}
