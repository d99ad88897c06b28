package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/funcagent/callback"
	"github.com/hupe1980/funcagent/core"
)

func newRecordingManager(t *testing.T) (*callback.Manager, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return callback.NewManager(NewHandler(tp)), sr
}

func attr(spanAttrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range spanAttrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestHandler_ToolSpan(t *testing.T) {
	m, sr := newRecordingManager(t)

	scope := m.Start(context.Background(), callback.EventFunctionCall, map[callback.PayloadKey]any{
		callback.PayloadTool:         "add",
		callback.PayloadFunctionCall: map[string]any{"a": 2, "b": 3},
	})
	scope.End(map[callback.PayloadKey]any{
		callback.PayloadFunctionOutput: core.ToolOutput{Content: "5", ToolName: "add"},
	})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.execute", spans[0].Name())

	v, ok := attr(spans[0].Attributes(), "tool.name")
	require.True(t, ok)
	assert.Equal(t, "add", v.AsString())

	v, ok = attr(spans[0].Attributes(), "tool.output")
	require.True(t, ok)
	assert.Equal(t, "5", v.AsString())

	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestHandler_ErrorStatus(t *testing.T) {
	m, sr := newRecordingManager(t)

	m.Start(context.Background(), callback.EventLLM, map[callback.PayloadKey]any{
		callback.PayloadModel: "scripted",
	}).End(map[callback.PayloadKey]any{
		callback.PayloadError: errors.New("backend down"),
	})

	m.Start(context.Background(), callback.EventFunctionCall, nil).End(map[callback.PayloadKey]any{
		callback.PayloadFunctionOutput: core.ToolOutput{Content: "Encountered error: boom", IsError: true},
	})

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "model.chat", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "backend down", spans[0].Status().Description)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestHandler_UnknownEndIgnored(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	h := NewHandler(tp)

	h.OnEventEnd(context.Background(), callback.Event{ID: "missing"})
	assert.Empty(t, sr.Ended())
}
