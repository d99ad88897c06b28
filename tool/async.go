package tool

import (
	"context"
	"fmt"
)

type asyncAdapter struct {
	Tool
}

// CallAsync runs the wrapped tool on its own goroutine.
func (a *asyncAdapter) CallAsync(ctx context.Context, args Arguments) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		defer close(ch)
		ch <- SafeCall(ctx, a.Tool, args)
	}()

	return ch
}

// AdaptToAsync returns t unchanged when it already implements AsyncTool and
// otherwise wraps it so CallAsync runs Call on a separate goroutine.
func AdaptToAsync(t Tool) AsyncTool {
	if at, ok := t.(AsyncTool); ok {
		return at
	}

	return &asyncAdapter{Tool: t}
}

// AdaptAll applies AdaptToAsync to every tool, preserving order.
func AdaptAll(tools []Tool) []AsyncTool {
	out := make([]AsyncTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, AdaptToAsync(t))
	}

	return out
}

// SafeCall calls t and folds a returned error or a panic into the Result.
func SafeCall(ctx context.Context, t Tool, args Arguments) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("tool %s panicked: %v", t.Metadata().Name, r)}
		}
	}()

	v, err := t.Call(ctx, args)

	return Result{Value: v, Err: err}
}

// SafeCallAsync starts t through its asynchronous contract. A panic raised
// while starting the call, or a missing result channel, is delivered as a
// failed Result on the returned channel.
func SafeCallAsync(ctx context.Context, t AsyncTool, args Arguments) (ch <-chan Result) {
	defer func() {
		if r := recover(); r != nil {
			ch = resolved(Result{Err: fmt.Errorf("tool %s panicked: %v", t.Metadata().Name, r)})
		}
	}()

	ch = t.CallAsync(ctx, args)
	if ch == nil {
		return resolved(Result{Err: fmt.Errorf("tool %s returned no result channel", t.Metadata().Name)})
	}

	return ch
}

func resolved(res Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- res
	close(ch)

	return ch
}

// CloneArguments deep-copies nested argument maps and slices so a tool
// cannot modify the selection it was called with.
func CloneArguments(kwargs map[string]any) map[string]any {
	if kwargs == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneArguments(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
