package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/funcagent/internal/util"
	"github.com/hupe1980/funcagent/tool"
)

type operands struct {
	A float64 `json:"a" description:"first operand"`
	B float64 `json:"b" description:"second operand"`
}

type radicand struct {
	X float64 `json:"x" description:"non-negative number"`
}

func calculatorTools() []tool.Tool {
	return []tool.Tool{
		binaryTool("add", "Add two numbers and return the sum", func(a, b float64) (float64, error) {
			return a + b, nil
		}),
		binaryTool("subtract", "Subtract b from a", func(a, b float64) (float64, error) {
			return a - b, nil
		}),
		binaryTool("multiply", "Multiply two numbers and return the product", func(a, b float64) (float64, error) {
			return a * b, nil
		}),
		binaryTool("divide", "Divide a by b", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, errors.New("division by zero")
			}
			return a / b, nil
		}),
		tool.NewUnaryTool("sqrt", "Square root of x", util.CreateSchema(radicand{}), func(_ context.Context, input any) (any, error) {
			x, err := number(input)
			if err != nil {
				return nil, err
			}
			if x < 0 {
				return nil, fmt.Errorf("cannot take the square root of %v", x)
			}
			return math.Sqrt(x), nil
		}),
	}
}

func binaryTool(name, desc string, op func(a, b float64) (float64, error)) *tool.FunctionTool {
	return tool.NewFunctionToolFromStruct(name, desc, operands{}, func(_ context.Context, args map[string]any) (any, error) {
		a, err := number(args["a"])
		if err != nil {
			return nil, fmt.Errorf("a: %w", err)
		}

		b, err := number(args["b"])
		if err != nil {
			return nil, fmt.Errorf("b: %w", err)
		}

		return op(a, b)
	})
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
