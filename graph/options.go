package graph

import (
	"github.com/planweave/planweave/checkpoint"
	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/logging"
	"github.com/planweave/planweave/observability"
)

const defaultMaxIterations = 100

// RunOption customizes a single Run or Resume.
type RunOption func(*runConfig)

type runConfig struct {
	runID       string
	workflow    string
	maxIter     int
	logger      logging.Logger
	metrics     observability.MetricsRecorder
	tracer      observability.Tracer
	checkpoints checkpoint.Store
	emit        func(core.Event)
}

func defaultRunConfig() runConfig {
	return runConfig{
		workflow: "graph",
		maxIter:  defaultMaxIterations,
		logger:   logging.NoOpLogger{},
		metrics:  observability.NoopMetrics{},
		tracer:   observability.NoopTracer{},
	}
}

// WithRunID sets the run identifier used for checkpoints, events and
// traces. Generated when omitted unless checkpointing is enabled, which
// requires an explicit ID so the run can be resumed.
func WithRunID(id string) RunOption {
	return func(c *runConfig) { c.runID = id }
}

// WithWorkflowName labels metrics and traces with the workflow name.
func WithWorkflowName(name string) RunOption {
	return func(c *runConfig) { c.workflow = name }
}

// WithMaxIterations bounds the number of node executions per run,
// protecting against routing cycles. Defaults to 100.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIter = n
		}
	}
}

// WithLogger enables run logging.
func WithLogger(l logging.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracer enables tracing spans per run and node.
func WithTracer(t observability.Tracer) RunOption {
	return func(c *runConfig) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithCheckpoints persists state to the store after every node so the run
// can be resumed. Requires WithRunID.
func WithCheckpoints(s checkpoint.Store) RunOption {
	return func(c *runConfig) { c.checkpoints = s }
}

// WithEmit registers a callback receiving run events (node completions,
// errors) as they happen.
func WithEmit(fn func(core.Event)) RunOption {
	return func(c *runConfig) { c.emit = fn }
}
