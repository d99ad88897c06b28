package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/hupe1980/funcagent/callback"
	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/logging"
)

// ErrorPrefix starts the content of every ToolOutput recording a failed call.
const ErrorPrefix = "Encountered error: "

// ErrToolNotFound is the sentinel wrapped by *NotFoundError.
var ErrToolNotFound = errors.New("tool not found")

// NotFoundError reports a selection naming a tool absent from the catalog.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found in catalog %v", e.Name, e.Available)
}

// Unwrap returns ErrToolNotFound.
func (e *NotFoundError) Unwrap() error { return ErrToolNotFound }

// InvokerOptions configure an Invoker.
type InvokerOptions struct {
	// Verbose prints every call to Writer before it runs.
	Verbose bool
	Writer  io.Writer
	// Callbacks receives a function-call event around every invocation.
	Callbacks *callback.Manager
	Logger    logging.Logger
}

// Invoker executes one tool selection against a resolved catalog.
type Invoker struct {
	opts InvokerOptions
}

// NewInvoker creates an Invoker.
func NewInvoker(optFns ...func(o *InvokerOptions)) *Invoker {
	opts := InvokerOptions{
		Writer: os.Stdout,
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Writer == nil {
		opts.Writer = io.Discard
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Invoker{opts: opts}
}

// Lookup returns the tool named name, or nil.
func Lookup(tools []AsyncTool, name string) AsyncTool {
	for _, t := range tools {
		if t.Metadata().Name == name {
			return t
		}
	}

	return nil
}

// BindArguments applies the binding rule: a tool declaring exactly one
// parameter, called with exactly one argument, receives that argument
// positionally; every other call receives the full mapping.
func BindArguments(meta Metadata, kwargs map[string]any) Arguments {
	if len(meta.ParameterNames()) == 1 && len(kwargs) == 1 {
		for _, v := range kwargs {
			return Positional(v)
		}
	}

	return Named(kwargs)
}

// Invoke runs the selected tool on the calling goroutine. Tool errors and
// panics are returned as a ToolOutput; only a missing tool yields an error.
func (inv *Invoker) Invoke(ctx context.Context, tools []AsyncTool, sel core.ToolSelection) (core.ToolOutput, error) {
	return inv.invoke(ctx, tools, sel, func(t AsyncTool, args Arguments) (Result, error) {
		return SafeCall(ctx, t, args), nil
	})
}

// InvokeAsync runs the selected tool through its asynchronous contract and
// waits for the result. If ctx is done first the step is abandoned and
// ctx.Err() is returned.
func (inv *Invoker) InvokeAsync(ctx context.Context, tools []AsyncTool, sel core.ToolSelection) (core.ToolOutput, error) {
	return inv.invoke(ctx, tools, sel, func(t AsyncTool, args Arguments) (Result, error) {
		select {
		case res, ok := <-SafeCallAsync(ctx, t, args):
			if !ok {
				return Result{Err: fmt.Errorf("tool %s closed its result channel", t.Metadata().Name)}, nil
			}
			return res, nil
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	})
}

func (inv *Invoker) invoke(
	ctx context.Context,
	tools []AsyncTool,
	sel core.ToolSelection,
	run func(t AsyncTool, args Arguments) (Result, error),
) (output core.ToolOutput, err error) {
	t := Lookup(tools, sel.ToolName)
	if t == nil {
		names := make([]string, 0, len(tools))
		for _, tt := range tools {
			names = append(names, tt.Metadata().Name)
		}

		return core.ToolOutput{}, &NotFoundError{Name: sel.ToolName, Available: names}
	}

	kwargs := CloneArguments(sel.ToolKwargs)

	if inv.opts.Verbose {
		argStr, _ := json.Marshal(kwargs)
		fmt.Fprintln(inv.opts.Writer, "=== Calling Function ===")
		fmt.Fprintf(inv.opts.Writer, "Calling function: %s with args: %s\n", sel.ToolName, argStr)
	}

	logger := inv.opts.Logger
	logger.Debug("tool.invoke.start", "tool", sel.ToolName, "call_id", sel.ToolID)

	scope := inv.opts.Callbacks.Start(ctx, callback.EventFunctionCall, map[callback.PayloadKey]any{
		callback.PayloadTool:         sel.ToolName,
		callback.PayloadFunctionCall: kwargs,
	})
	defer func() {
		payload := map[callback.PayloadKey]any{
			callback.PayloadTool:           sel.ToolName,
			callback.PayloadFunctionOutput: output,
		}
		if err != nil {
			payload[callback.PayloadError] = err
		}
		scope.End(payload)
	}()

	start := time.Now()

	res, err := run(t, BindArguments(t.Metadata(), CloneArguments(kwargs)))
	if err != nil {
		logger.Warn("tool.invoke.abandoned", "tool", sel.ToolName, "error", err.Error())
		return core.ToolOutput{}, err
	}

	if res.Err != nil {
		output = core.ToolOutput{
			Content:   ErrorPrefix + res.Err.Error(),
			ToolName:  sel.ToolName,
			RawInput:  kwargs,
			RawOutput: res.Err.Error(),
			IsError:   true,
		}

		logger.Warn("tool.invoke.error", "tool", sel.ToolName, "error", res.Err.Error(),
			"duration_ms", time.Since(start).Milliseconds())

		return output, nil
	}

	output = core.ToolOutput{
		Content:   FormatOutput(res.Value),
		ToolName:  sel.ToolName,
		RawInput:  kwargs,
		RawOutput: res.Value,
	}

	logger.Debug("tool.invoke.done", "tool", sel.ToolName, "duration_ms", time.Since(start).Milliseconds())

	return output, nil
}

// FormatOutput renders a tool's native result as display content: strings
// verbatim, Stringers via String, composite values as JSON and everything
// else with fmt.Sprint.
func FormatOutput(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}

	return fmt.Sprint(v)
}
