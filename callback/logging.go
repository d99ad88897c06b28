package callback

import (
	"context"

	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/logging"
)

// LoggingHandler turns callback events into log lines.
type LoggingHandler struct {
	logger logging.Logger
}

// NewLoggingHandler creates a handler writing to logger (no-op when nil).
func NewLoggingHandler(logger logging.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logging.OrNoOp(logger)}
}

// OnEventStart implements Handler.
func (h *LoggingHandler) OnEventStart(_ context.Context, e Event) {
	h.logger.Debug("callback."+string(e.Type)+".start", eventArgs(e)...)
}

// OnEventEnd implements Handler.
func (h *LoggingHandler) OnEventEnd(_ context.Context, e Event) {
	args := eventArgs(e)

	if err, ok := e.Payload[PayloadError].(error); ok && err != nil {
		h.logger.Warn("callback."+string(e.Type)+".end", append(args, "error", err.Error())...)
		return
	}

	h.logger.Debug("callback."+string(e.Type)+".end", args...)
}

func eventArgs(e Event) []any {
	args := []any{"event_id", e.ID}

	if name, ok := e.Payload[PayloadTool].(string); ok {
		args = append(args, "tool", name)
	}
	if kwargs, ok := e.Payload[PayloadFunctionCall].(map[string]any); ok {
		args = append(args, "args", kwargs)
	}
	if out, ok := e.Payload[PayloadFunctionOutput].(core.ToolOutput); ok {
		args = append(args, "output", out.Content, "is_error", out.IsError)
	}
	if name, ok := e.Payload[PayloadModel].(string); ok {
		args = append(args, "model", name)
	}
	if msgs, ok := e.Payload[PayloadMessages].([]core.Message); ok {
		args = append(args, "message_count", len(msgs))
	}

	return args
}
