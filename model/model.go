package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/funcagent/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// ChatResult is the outcome of one backend call. Message is always an
// assistant message; any tool requests are carried in Message.ToolSelections.
type ChatResult struct {
	Message core.Message `json:"message"`
	Usage   *TokenUsage  `json:"usage,omitempty"`
	// Raw holds the provider response for callers that need vendor fields.
	Raw any `json:"-"`
}

// Backend is the reasoning component consulted once per step.
type Backend interface {
	// Info returns information about the backend implementation.
	Info() Info

	// ChatWithTools sends the history together with the tool catalog and
	// returns the backend's next assistant turn.
	ChatWithTools(ctx context.Context, tools []ToolDefinition, history []core.Message) (*ChatResult, error)
}

// ToolCallFromResult returns the first tool selection carried by res, or nil
// when the backend did not request a tool.
func ToolCallFromResult(res *ChatResult) *core.ToolSelection {
	if res == nil || len(res.Message.ToolSelections) == 0 {
		return nil
	}

	sel := res.Message.ToolSelections[0]

	return &sel
}

// ToolCallsFromResult returns every tool selection carried by res.
func ToolCallsFromResult(res *ChatResult) []core.ToolSelection {
	if res == nil {
		return nil
	}

	return append([]core.ToolSelection(nil), res.Message.ToolSelections...)
}

// ParseToolArguments decodes the JSON argument string providers attach to a
// tool call. An empty string yields an empty mapping.
func ParseToolArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}

	args := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments %q: %w", raw, err)
	}

	if args == nil { // literal null
		args = map[string]any{}
	}

	return args, nil
}

// EncodeToolArguments renders an argument mapping as the JSON string
// providers expect when replaying an earlier tool call.
func EncodeToolArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}

	return string(b)
}
