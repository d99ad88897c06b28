package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/funcagent/internal/util"
)

// FunctionTool is a generic adapter that exposes a plain Go function taking
// named arguments as a Tool.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Re-keys a positional argument to the single declared parameter
//   - Validates arguments against that schema before execution
//   - Normalizes error handling so callers receive *ToolError with consistent codes:
//     VALIDATION_ERROR  -> schema / argument mismatch
//     EXECUTION_ERROR   -> underlying function returned an error (non-ToolError)
//     (custom codes preserved if the function returns *ToolError directly)
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FunctionTool struct {
	meta Metadata
	fn   func(ctx context.Context, args map[string]any) (any, error)
}

var _ Tool = (*FunctionTool)(nil)

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	add := tool.NewFunctionTool(
//	  "add",
//	  "Add two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		meta: Metadata{Name: name, Description: description, Parameters: parameters},
		fn:   fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// reflection; see util.CreateSchema for the tag conventions.
//
//	type SumArgs struct {
//	  A float64 `json:"a" description:"First addend"`
//	  B float64 `json:"b" description:"Second addend"`
//	}
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Metadata implements Tool.
func (t *FunctionTool) Metadata() Metadata { return t.meta }

// Call validates the provided args against the declared schema then invokes
// the underlying function.
func (t *FunctionTool) Call(ctx context.Context, args Arguments) (any, error) {
	kwargs, err := t.namedArgs(args)
	if err != nil {
		return nil, err
	}

	if err := util.ValidateParameters(kwargs, t.meta.Parameters); err != nil {
		return nil, &ToolError{
			Tool:    t.meta.Name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(ctx, kwargs)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}

		return nil, &ToolError{
			Tool:    t.meta.Name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	return result, nil
}

func (t *FunctionTool) namedArgs(args Arguments) (map[string]any, error) {
	v, ok := args.Single()
	if !ok {
		return args.Kwargs(), nil
	}

	names := t.meta.ParameterNames()
	if len(names) != 1 {
		return nil, &ToolError{
			Tool:    t.meta.Name,
			Message: fmt.Sprintf("positional argument given but %d parameters declared", len(names)),
			Code:    "VALIDATION_ERROR",
		}
	}

	return map[string]any{names[0]: v}, nil
}

// UnaryTool exposes a loosely typed single-argument function as a Tool. When
// the binding rule applies the function receives the bare value; otherwise it
// receives the full argument mapping.
type UnaryTool struct {
	meta Metadata
	fn   func(ctx context.Context, input any) (any, error)
}

var _ Tool = (*UnaryTool)(nil)

// NewUnaryTool constructs a UnaryTool.
func NewUnaryTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, input any) (any, error),
) *UnaryTool {
	return &UnaryTool{
		meta: Metadata{Name: name, Description: description, Parameters: parameters},
		fn:   fn,
	}
}

// Metadata implements Tool.
func (t *UnaryTool) Metadata() Metadata { return t.meta }

// Call implements Tool.
func (t *UnaryTool) Call(ctx context.Context, args Arguments) (any, error) {
	if v, ok := args.Single(); ok {
		return t.fn(ctx, v)
	}

	return t.fn(ctx, args.Kwargs())
}
