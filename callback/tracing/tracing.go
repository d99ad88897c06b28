// Package tracing exports callback events as OpenTelemetry spans.
package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/funcagent/callback"
	"github.com/hupe1980/funcagent/core"
)

const instrumentationName = "github.com/hupe1980/funcagent"

// Handler implements callback.Handler by opening a span on every start event
// and closing it on the matching end event.
type Handler struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

var _ callback.Handler = (*Handler)(nil)

// NewHandler creates a span handler on top of tp.
func NewHandler(tp trace.TracerProvider) *Handler {
	return &Handler{
		tracer: tp.Tracer(instrumentationName),
		spans:  map[string]trace.Span{},
	}
}

func spanName(t callback.EventType) string {
	switch t {
	case callback.EventFunctionCall:
		return "tool.execute"
	case callback.EventLLM:
		return "model.chat"
	default:
		return string(t)
	}
}

// OnEventStart implements callback.Handler.
func (h *Handler) OnEventStart(ctx context.Context, e callback.Event) {
	attrs := []attribute.KeyValue{attribute.String("funcagent.event_id", e.ID)}

	if name, ok := e.Payload[callback.PayloadTool].(string); ok {
		attrs = append(attrs, attribute.String("tool.name", name))
	}
	if kwargs, ok := e.Payload[callback.PayloadFunctionCall].(map[string]any); ok {
		if b, err := json.Marshal(kwargs); err == nil {
			attrs = append(attrs, attribute.String("tool.arguments", string(b)))
		}
	}
	if name, ok := e.Payload[callback.PayloadModel].(string); ok {
		attrs = append(attrs, attribute.String("model.name", name))
	}
	if msgs, ok := e.Payload[callback.PayloadMessages].([]core.Message); ok {
		attrs = append(attrs, attribute.Int("model.message_count", len(msgs)))
	}

	_, span := h.tracer.Start(ctx, spanName(e.Type),
		trace.WithTimestamp(e.Time),
		trace.WithAttributes(attrs...),
	)

	h.mu.Lock()
	h.spans[e.ID] = span
	h.mu.Unlock()
}

// OnEventEnd implements callback.Handler.
func (h *Handler) OnEventEnd(_ context.Context, e callback.Event) {
	h.mu.Lock()
	span, ok := h.spans[e.ID]
	delete(h.spans, e.ID)
	h.mu.Unlock()

	if !ok {
		return
	}

	if out, ok := e.Payload[callback.PayloadFunctionOutput].(core.ToolOutput); ok {
		span.SetAttributes(
			attribute.String("tool.output", out.Content),
			attribute.Bool("tool.error", out.IsError),
		)
		if out.IsError {
			span.SetStatus(codes.Error, out.Content)
		}
	}

	if resp, ok := e.Payload[callback.PayloadResponse].(core.Message); ok {
		span.SetAttributes(attribute.Int("model.tool_selections", len(resp.ToolSelections)))
	}

	if err, ok := e.Payload[callback.PayloadError].(error); ok && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End(trace.WithTimestamp(e.Time))
}

// Config configures the OTLP/HTTP exporter used by NewProvider.
type Config struct {
	Endpoint    string            // host:port of the collector
	Insecure    bool              // skip TLS for local dev
	ServiceName string            // default "funcagent"
	Headers     map[string]string // extra headers (auth tokens, etc.)
}

// NewProvider creates a batching TracerProvider exporting over OTLP/HTTP.
// Callers own the provider and must Shutdown it.
func NewProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "funcagent"
	}

	opts := []otlptracehttp.Option{}
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otel: failed to create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel: failed to create resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
