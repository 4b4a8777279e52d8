package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Not parallel: installs global tracer provider and propagator.
func TestInitTracerProviderPropagatesSpans(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	core, logs := observer.New(zapcore.DebugLevel)
	tp, err := InitTracerProvider(context.Background(), Options{SampleRatio: 1}, zap.New(core))
	require.NoError(t, err)

	ctx, span := otel.Tracer("test").Start(context.Background(), "parse DETAIL")
	require.True(t, span.SpanContext().IsSampled())

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	span.End()

	traceID := span.SpanContext().TraceID().String()
	assert.Contains(t, carrier.Get("traceparent"), traceID)

	entries := logs.FilterMessage("span ended").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "parse DETAIL", entries[0].ContextMap()["span"])
	assert.Equal(t, traceID, entries[0].ContextMap()["trace_id"])

	require.NoError(t, Shutdown(tp, time.Second))
}

func TestZeroRatioStillPropagatesParent(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	tp, err := InitTracerProvider(context.Background(), Options{ServiceName: "harvester-test"}, nil)
	require.NoError(t, err)
	defer func() { _ = Shutdown(tp, time.Second) }()

	ctx, span := otel.Tracer("test").Start(context.Background(), "parse LIST")
	defer span.End()
	assert.False(t, span.SpanContext().IsSampled())
	assert.True(t, span.SpanContext().IsValid())

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	assert.NotEmpty(t, carrier.Get("traceparent"))
}
