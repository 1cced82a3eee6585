package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/emudecky/emudecky/internal/logger"
)

// useRecorder installs a recording tracer for the duration of the test.
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	prev, prevEnabled := Tracer(), IsEnabled()
	install(tp.Tracer("test"), true)
	t.Cleanup(func() {
		install(prev, prevEnabled)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "emudecky", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, Config{})
	require.NoError(t, err)
	require.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())

	_, span := StartSpan(ctx, "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}

func TestParseProfileTypes(t *testing.T) {
	types, err := parseProfileTypes(DefaultProfileTypes)
	require.NoError(t, err)
	assert.Len(t, types, len(DefaultProfileTypes))

	_, err = parseProfileTypes([]string{"cpu", "heap"})
	assert.ErrorContains(t, err, "heap")
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1.5).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestStartHookSpan(t *testing.T) {
	rec := useRecorder(t)

	_, span := StartHookSpan(context.Background(), "MetaDeck", "start")
	EndSpan(span, nil)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "module.start", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), Module("MetaDeck"))
	assert.Contains(t, spans[0].Attributes(), Hook("start"))
}

func TestStartCallSpanCopiesTraceIntoLogContext(t *testing.T) {
	useRecorder(t)

	ctx := logger.WithContext(context.Background(), logger.NewLogContext("call-1"))
	ctx, span := StartCallSpan(ctx, "Emuchievements", "Hash", "call-1")
	defer span.End()

	lc := logger.FromContext(ctx)
	require.NotNil(t, lc)
	assert.Equal(t, TraceID(ctx), lc.TraceID)
	assert.Equal(t, SpanID(ctx), lc.SpanID)
	assert.NotEmpty(t, lc.TraceID)
	assert.Equal(t, "call-1", lc.CallID)
}

func TestEndSpanRecordsError(t *testing.T) {
	rec := useRecorder(t)

	_, span := StartSpan(context.Background(), SpanInitialize)
	EndSpan(span, errors.New("start failed"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "start failed", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestEndSpanNilError(t *testing.T) {
	rec := useRecorder(t)

	_, span := StartSettingsSpan(context.Background(), SpanRead, "emudecky")
	EndSpan(span, nil)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), Namespace("emudecky"))
}
