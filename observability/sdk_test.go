package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// The global meter delegates to providers installed later, so the cached
// recorder picks up the manual reader regardless of test order.
func TestMetricsRecorder_RecordsThroughSDK(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	rec := NewMetricsRecorder()
	ctx := context.Background()
	rec.RecordStep(ctx, "marketing", "analyze_site", 12*time.Millisecond, nil)
	rec.RecordStep(ctx, "marketing", "analyze_site", 5*time.Millisecond, errors.New("boom"))
	rec.RecordRun(ctx, "marketing", true, 120*time.Millisecond)
	rec.RecordModelCall(ctx, "openai", 80*time.Millisecond, 900, nil)
	rec.RecordCheckpoint(ctx, "marketing", 512)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	byName := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			byName[m.Name] = m
		}
	}
	for _, want := range []string{
		"planweave.step.executions",
		"planweave.step.latency_ms",
		"planweave.step.errors",
		"planweave.run.count",
		"planweave.run.latency_ms",
		"planweave.model.calls",
		"planweave.model.latency_ms",
		"planweave.model.tokens",
		"planweave.checkpoint.size_bytes",
	} {
		_, ok := byName[want]
		assert.True(t, ok, "missing metric %s", want)
	}

	latency, ok := byName["planweave.model.latency_ms"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, latency.DataPoints, 1)
	assert.Equal(t, 80.0, latency.DataPoints[0].Sum)
}

func TestTracer_ExportsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))

	tr := NewTracer()
	ctx, runSpan := tr.StartRun(context.Background(), "research", "run-9")
	_, stepSpan := tr.StartStep(ctx, "write_brief")
	stepSpan.End(nil)
	_, callSpan := tr.StartModelCall(ctx, "openai")
	callSpan.End(errors.New("rate limited"))
	runSpan.End(nil)

	spans := sr.Ended()
	require.Len(t, spans, 3)
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name()
	}
	assert.Contains(t, names, "planweave.run")
	assert.Contains(t, names, "planweave.step")
	assert.Contains(t, names, "planweave.model.call")
}
