package tool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/funcagent/callback"
	"github.com/hupe1980/funcagent/core"
)

type eventLog struct {
	mu     sync.Mutex
	starts []callback.Event
	ends   []callback.Event
}

func (l *eventLog) OnEventStart(_ context.Context, e callback.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.starts = append(l.starts, e)
}

func (l *eventLog) OnEventEnd(_ context.Context, e callback.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ends = append(l.ends, e)
}

func invokeBoth(t *testing.T, inv *Invoker, tools []AsyncTool, sel core.ToolSelection) []core.ToolOutput {
	t.Helper()

	syncOut, err := inv.Invoke(context.Background(), tools, sel)
	require.NoError(t, err)

	asyncOut, err := inv.InvokeAsync(context.Background(), tools, sel)
	require.NoError(t, err)

	return []core.ToolOutput{syncOut, asyncOut}
}

func TestInvoker_Success(t *testing.T) {
	tools := AdaptAll([]Tool{addTool()})
	sel := core.ToolSelection{ToolID: "call_1", ToolName: "add", ToolKwargs: map[string]any{"a": 2, "b": 3}}

	for _, out := range invokeBoth(t, NewInvoker(), tools, sel) {
		assert.Equal(t, "5", out.Content)
		assert.Equal(t, "add", out.ToolName)
		assert.Equal(t, sel.ToolKwargs, out.RawInput)
		assert.Equal(t, float64(5), out.RawOutput)
		assert.False(t, out.IsError)
	}
}

func TestInvoker_ErrorBecomesOutput(t *testing.T) {
	failing := NewUnaryTool("fail", "", nil, func(context.Context, any) (any, error) {
		return nil, errors.New("disk full")
	})

	tools := AdaptAll([]Tool{failing})
	sel := core.ToolSelection{ToolName: "fail", ToolKwargs: map[string]any{"path": "/tmp"}}

	for _, out := range invokeBoth(t, NewInvoker(), tools, sel) {
		assert.True(t, strings.HasPrefix(out.Content, ErrorPrefix))
		assert.Equal(t, "Encountered error: disk full", out.Content)
		assert.Equal(t, "disk full", out.RawOutput)
		assert.True(t, out.IsError)
	}
}

func TestInvoker_PanicBecomesOutput(t *testing.T) {
	panicky := NewUnaryTool("panicky", "", nil, func(context.Context, any) (any, error) {
		var m map[string]int
		m["boom"] = 1 // nil map write
		return nil, nil
	})

	tools := AdaptAll([]Tool{panicky})
	sel := core.ToolSelection{ToolName: "panicky"}

	for _, out := range invokeBoth(t, NewInvoker(), tools, sel) {
		assert.True(t, strings.HasPrefix(out.Content, ErrorPrefix))
		assert.Contains(t, out.Content, "panicked")
		assert.True(t, out.IsError)
	}
}

func TestInvoker_NotFound(t *testing.T) {
	log := &eventLog{}
	inv := NewInvoker(func(o *InvokerOptions) { o.Callbacks = callback.NewManager(log) })

	_, err := inv.Invoke(context.Background(), AdaptAll([]Tool{addTool()}), core.ToolSelection{ToolName: "mul"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "mul", nf.Name)
	assert.Equal(t, []string{"add"}, nf.Available)

	_, err = inv.InvokeAsync(context.Background(), nil, core.ToolSelection{ToolName: "mul"})
	assert.ErrorIs(t, err, ErrToolNotFound)

	assert.Empty(t, log.starts)
}

func TestInvoker_EmitsCallbackEvents(t *testing.T) {
	log := &eventLog{}
	inv := NewInvoker(func(o *InvokerOptions) { o.Callbacks = callback.NewManager(log) })

	failing := NewUnaryTool("fail", "", nil, func(context.Context, any) (any, error) {
		return nil, errors.New("nope")
	})

	_, err := inv.Invoke(context.Background(), AdaptAll([]Tool{addTool(), failing}),
		core.ToolSelection{ToolName: "add", ToolKwargs: map[string]any{"a": 1, "b": 1}})
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), AdaptAll([]Tool{addTool(), failing}),
		core.ToolSelection{ToolName: "fail"})
	require.NoError(t, err)

	require.Len(t, log.starts, 2)
	require.Len(t, log.ends, 2)

	assert.Equal(t, callback.EventFunctionCall, log.starts[0].Type)
	assert.Equal(t, "add", log.starts[0].Payload[callback.PayloadTool])
	assert.Equal(t, map[string]any{"a": 1, "b": 1}, log.starts[0].Payload[callback.PayloadFunctionCall])

	out, ok := log.ends[0].Payload[callback.PayloadFunctionOutput].(core.ToolOutput)
	require.True(t, ok)
	assert.Equal(t, "2", out.Content)

	out, ok = log.ends[1].Payload[callback.PayloadFunctionOutput].(core.ToolOutput)
	require.True(t, ok)
	assert.True(t, out.IsError)
	assert.Equal(t, log.starts[1].ID, log.ends[1].ID)
}

type explodingAsync struct {
	*FunctionTool
}

func (e *explodingAsync) Call(context.Context, Arguments) (any, error) {
	panic("sync boom")
}

func (e *explodingAsync) CallAsync(context.Context, Arguments) <-chan Result {
	panic("async boom")
}

type silentAsync struct {
	*FunctionTool
}

func (s *silentAsync) CallAsync(context.Context, Arguments) <-chan Result { return nil }

func TestInvoker_NativeAsyncPanicBecomesOutput(t *testing.T) {
	tools := []AsyncTool{&explodingAsync{FunctionTool: addTool()}}
	sel := core.ToolSelection{ToolName: "add", ToolKwargs: map[string]any{"a": 1, "b": 2}}

	outs := invokeBoth(t, NewInvoker(), tools, sel)

	assert.Equal(t, "Encountered error: tool add panicked: sync boom", outs[0].Content)
	assert.Equal(t, "Encountered error: tool add panicked: async boom", outs[1].Content)
	for _, out := range outs {
		assert.True(t, out.IsError)
	}
}

func TestInvoker_NilResultChannelBecomesOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tools := []AsyncTool{&silentAsync{FunctionTool: addTool()}}

	out, err := NewInvoker().InvokeAsync(ctx, tools,
		core.ToolSelection{ToolName: "add", ToolKwargs: map[string]any{"a": 1, "b": 2}})
	require.NoError(t, err)
	assert.True(t, out.IsError)
	assert.Equal(t, "Encountered error: tool add returned no result channel", out.Content)
}

func TestInvoker_ToolCannotModifySelection(t *testing.T) {
	tampering := NewFunctionTool("tamper", "", nil, func(_ context.Context, args map[string]any) (any, error) {
		args["a"] = "tampered"
		args["nested"].(map[string]any)["k"] = "tampered"
		args["list"].([]any)[0] = "tampered"
		return "ok", nil
	})

	tools := AdaptAll([]Tool{tampering})
	sel := core.ToolSelection{ToolName: "tamper", ToolKwargs: map[string]any{
		"a":      1,
		"nested": map[string]any{"k": "v"},
		"list":   []any{"x"},
	}}

	want := map[string]any{
		"a":      1,
		"nested": map[string]any{"k": "v"},
		"list":   []any{"x"},
	}

	for _, out := range invokeBoth(t, NewInvoker(), tools, sel) {
		assert.Equal(t, "ok", out.Content)
		assert.Equal(t, want, out.RawInput)
	}

	assert.Equal(t, want, sel.ToolKwargs)
}

func TestCloneArguments(t *testing.T) {
	assert.Equal(t, map[string]any{}, CloneArguments(nil))

	in := map[string]any{"m": map[string]any{"x": 1}}
	out := CloneArguments(in)
	out["m"].(map[string]any)["x"] = 2

	assert.Equal(t, 1, in["m"].(map[string]any)["x"])
}
