// Package tool implements the invocable side of the step engine: tool
// metadata and argument binding, the synchronous and asynchronous call
// contracts, the per-task catalog resolver and the invoker that turns every
// tool failure into a recorded core.ToolOutput.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/funcagent/internal/util"
	"github.com/hupe1980/funcagent/model"
)

// Metadata describes a tool to the backend.
type Metadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON schema of the accepted arguments
}

// Definition converts the metadata into the provider-neutral function
// declaration sent to the backend.
func (m Metadata) Definition() model.ToolDefinition {
	params := m.Parameters
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        m.Name,
			Description: m.Description,
			Parameters:  params,
		},
	}
}

// ParameterNames returns the declared parameter names in sorted order.
func (m Metadata) ParameterNames() []string {
	return util.PropertyNames(m.Parameters)
}

// Arguments is what a tool receives: either a single positional value or a
// mapping of named values. See BindArguments for the rule choosing between them.
type Arguments struct {
	single     any
	positional bool
	kwargs     map[string]any
}

// Positional wraps a single value passed without a name.
func Positional(v any) Arguments {
	return Arguments{single: v, positional: true}
}

// Named wraps an argument mapping.
func Named(kwargs map[string]any) Arguments {
	return Arguments{kwargs: kwargs}
}

// Single returns the positional value, if the arguments carry one.
func (a Arguments) Single() (any, bool) {
	return a.single, a.positional
}

// Kwargs returns the named mapping; nil for positional arguments.
func (a Arguments) Kwargs() map[string]any {
	if a.positional {
		return nil
	}

	if a.kwargs == nil {
		return map[string]any{}
	}

	return a.kwargs
}

// Tool is a named callable with a declared parameter schema.
//
// Implementations should be safe for concurrent use: distinct tasks may call
// the same tool at the same time.
type Tool interface {
	// Metadata returns the name, description and parameter schema offered to the backend.
	Metadata() Metadata

	// Call executes the tool. A returned error is recorded as a failed
	// ToolOutput by the invoker; it never aborts the loop.
	Call(ctx context.Context, args Arguments) (any, error)
}

// Result is the outcome of a tool call: exactly one of Value or Err is meaningful.
type Result struct {
	Value any
	Err   error
}

// AsyncTool is a Tool that can also be called without blocking the caller.
// The returned channel yields exactly one Result and is then closed.
type AsyncTool interface {
	Tool
	CallAsync(ctx context.Context, args Arguments) <-chan Result
}

// Definitions exports the function declarations of tools in order.
func Definitions[T Tool](tools []T) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, t.Metadata().Definition())
	}

	return defs
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
