// Package observability provides opt-in metrics and tracing for planweave
// runs via OpenTelemetry. No-op implementations are used when disabled so
// the hot path carries no conditional instrumentation logic.
package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records workflow execution metrics.
type MetricsRecorder interface {
	// RecordStep records one graph node or crew task execution.
	RecordStep(ctx context.Context, workflow, step string, duration time.Duration, err error)

	// RecordRun records a completed workflow run.
	RecordRun(ctx context.Context, workflow string, success bool, duration time.Duration)

	// RecordModelCall records a model invocation with its token usage.
	RecordModelCall(ctx context.Context, provider string, duration time.Duration, totalTokens int, err error)

	// RecordCheckpoint records a checkpoint save.
	RecordCheckpoint(ctx context.Context, workflow string, sizeBytes int64)
}

type otelMetrics struct {
	steps          metric.Int64Counter
	stepLatency    metric.Float64Histogram
	stepErrors     metric.Int64Counter
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	modelCalls     metric.Int64Counter
	modelLatency   metric.Float64Histogram
	modelTokens    metric.Int64Counter
	checkpointSize metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("planweave")

	steps, err := meter.Int64Counter("planweave.step.executions",
		metric.WithDescription("Number of node/task executions"))
	if err != nil {
		return nil, err
	}
	stepLatency, err := meter.Float64Histogram("planweave.step.latency_ms",
		metric.WithDescription("Node/task execution latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	stepErrors, err := meter.Int64Counter("planweave.step.errors",
		metric.WithDescription("Number of node/task execution errors"))
	if err != nil {
		return nil, err
	}
	runs, err := meter.Int64Counter("planweave.run.count",
		metric.WithDescription("Number of workflow runs"))
	if err != nil {
		return nil, err
	}
	runLatency, err := meter.Float64Histogram("planweave.run.latency_ms",
		metric.WithDescription("Workflow run latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	modelCalls, err := meter.Int64Counter("planweave.model.calls",
		metric.WithDescription("Number of model invocations"))
	if err != nil {
		return nil, err
	}
	modelLatency, err := meter.Float64Histogram("planweave.model.latency_ms",
		metric.WithDescription("Model invocation latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	modelTokens, err := meter.Int64Counter("planweave.model.tokens",
		metric.WithDescription("Total tokens consumed by model invocations"))
	if err != nil {
		return nil, err
	}
	checkpointSize, err := meter.Int64Histogram("planweave.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		steps:          steps,
		stepLatency:    stepLatency,
		stepErrors:     stepErrors,
		runs:           runs,
		runLatency:     runLatency,
		modelCalls:     modelCalls,
		modelLatency:   modelLatency,
		modelTokens:    modelTokens,
		checkpointSize: checkpointSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. Configure the provider before calling; if metric
// creation fails a no-op recorder is returned.
func NewMetricsRecorder() MetricsRecorder {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	if defaultMetricsErr != nil {
		return NoopMetrics{}
	}
	return defaultMetrics
}

func (m *otelMetrics) RecordStep(ctx context.Context, workflow, step string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("step", step),
	)
	m.steps.Add(ctx, 1, attrs)
	m.stepLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.stepErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordRun(ctx context.Context, workflow string, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.Bool("success", success),
	)
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *otelMetrics) RecordModelCall(ctx context.Context, provider string, duration time.Duration, totalTokens int, err error) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("error", err != nil),
	)
	m.modelCalls.Add(ctx, 1, attrs)
	m.modelLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if totalTokens > 0 {
		m.modelTokens.Add(ctx, int64(totalTokens), metric.WithAttributes(attribute.String("provider", provider)))
	}
}

func (m *otelMetrics) RecordCheckpoint(ctx context.Context, workflow string, sizeBytes int64) {
	m.checkpointSize.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String("workflow", workflow)))
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

// RecordStep discards the measurement.
func (NoopMetrics) RecordStep(context.Context, string, string, time.Duration, error) {}

// RecordRun discards the measurement.
func (NoopMetrics) RecordRun(context.Context, string, bool, time.Duration) {}

// RecordModelCall discards the measurement.
func (NoopMetrics) RecordModelCall(context.Context, string, time.Duration, int, error) {}

// RecordCheckpoint discards the measurement.
func (NoopMetrics) RecordCheckpoint(context.Context, string, int64) {}
