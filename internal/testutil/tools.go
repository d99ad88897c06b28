package testutil

import (
	"context"
	"fmt"

	"github.com/hupe1980/funcagent/tool"
)

// Number converts the numeric shapes produced by JSON decoding or Go
// literals to float64.
func Number(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %v (%T)", v, v)
	}
}

func binarySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number", "description": "first operand"},
			"b": map[string]any{"type": "number", "description": "second operand"},
		},
		"required": []string{"a", "b"},
	}
}

func binary(name, desc string, op func(a, b float64) (float64, error)) *tool.FunctionTool {
	return tool.NewFunctionTool(name, desc, binarySchema(), func(_ context.Context, args map[string]any) (any, error) {
		a, err := Number(args["a"])
		if err != nil {
			return nil, err
		}
		b, err := Number(args["b"])
		if err != nil {
			return nil, err
		}
		return op(a, b)
	})
}

// AddTool returns add(a, b).
func AddTool() *tool.FunctionTool {
	return binary("add", "Add two numbers", func(a, b float64) (float64, error) { return a + b, nil })
}

// MultiplyTool returns multiply(a, b).
func MultiplyTool() *tool.FunctionTool {
	return binary("multiply", "Multiply two numbers", func(a, b float64) (float64, error) { return a * b, nil })
}

// DivideTool returns divide(a, b), which fails on a zero divisor.
func DivideTool() *tool.FunctionTool {
	return binary("divide", "Divide a by b", func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	})
}
