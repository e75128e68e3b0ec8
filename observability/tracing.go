package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans around runs, nodes and tasks.
type Tracer interface {
	// StartRun starts the root span for a workflow run.
	StartRun(ctx context.Context, workflow, runID string) (context.Context, Span)

	// StartStep starts a child span for a node or task.
	StartStep(ctx context.Context, step string) (context.Context, Span)

	// StartModelCall starts a child span for a model invocation.
	StartModelCall(ctx context.Context, provider string) (context.Context, Span)
}

// Span is the subset of span behavior the runtime needs.
type Span interface {
	// End closes the span, recording err when non-nil.
	End(err error)

	// SetAttribute attaches a string attribute to the span.
	SetAttribute(key, value string)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by the global OTel tracer provider.
func NewTracer() Tracer {
	return &otelTracer{tracer: otel.Tracer("planweave")}
}

func (t *otelTracer) StartRun(ctx context.Context, workflow, runID string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, "planweave.run",
		trace.WithAttributes(
			attribute.String("workflow", workflow),
			attribute.String("run_id", runID),
		))
	return ctx, otelSpan{span}
}

func (t *otelTracer) StartStep(ctx context.Context, step string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, "planweave.step",
		trace.WithAttributes(attribute.String("step", step)))
	return ctx, otelSpan{span}
}

func (t *otelTracer) StartModelCall(ctx context.Context, provider string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, "planweave.model.call",
		trace.WithAttributes(attribute.String("provider", provider)))
	return ctx, otelSpan{span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

func (s otelSpan) SetAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// NoopTracer produces spans that record nothing.
type NoopTracer struct{}

func (NoopTracer) StartRun(ctx context.Context, _, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

func (NoopTracer) StartStep(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

func (NoopTracer) StartModelCall(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                {}
func (noopSpan) SetAttribute(_, _ string) {}
