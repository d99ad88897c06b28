package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/funcagent/core"
)

func TestScriptedBackend_ReplaysTurns(t *testing.T) {
	b := NewScriptedBackend([]core.Message{
		core.NewAssistantMessage("", core.ToolSelection{ToolID: "c1", ToolName: "add", ToolKwargs: map[string]any{"a": 2, "b": 3}}),
		core.NewAssistantMessage("7"),
	})

	defs := []ToolDefinition{{Type: "function", Function: FunctionDefinition{Name: "add"}}}
	history := []core.Message{core.NewUserMessage("what is 2+3?")}

	res, err := b.ChatWithTools(context.Background(), defs, history)
	require.NoError(t, err)
	sel := ToolCallFromResult(res)
	require.NotNil(t, sel)
	assert.Equal(t, "add", sel.ToolName)
	assert.Equal(t, "c1", sel.ToolID)

	res, err = b.ChatWithTools(context.Background(), defs, history)
	require.NoError(t, err)
	assert.Nil(t, ToolCallFromResult(res))
	assert.Equal(t, "7", res.Message.Content)
	assert.Equal(t, core.RoleAssistant, res.Message.Role)

	_, err = b.ChatWithTools(context.Background(), defs, history)
	assert.Error(t, err)

	calls := b.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "add", calls[0].Tools[0].Function.Name)
	assert.Equal(t, history, calls[1].History)
}

func TestScriptedBackend_FallbackAndFailures(t *testing.T) {
	fallback := core.NewAssistantMessage("done")
	b := NewScriptedBackend(nil, func(o *ScriptedOptions) {
		o.Name = "fallback"
		o.Fallback = &fallback
	})

	boom := errors.New("boom")
	b.FailAt(1, boom)

	res, err := b.ChatWithTools(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Message.Content)

	_, err = b.ChatWithTools(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, "fallback", b.Info().Name)
	assert.True(t, b.Info().SupportsTools)
}

func TestScriptedBackend_CancelledContext(t *testing.T) {
	b := NewScriptedBackend([]core.Message{core.NewAssistantMessage("x")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.ChatWithTools(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.Calls())
}

func TestToolCallsFromResult(t *testing.T) {
	assert.Nil(t, ToolCallFromResult(nil))
	assert.Nil(t, ToolCallsFromResult(nil))

	res := &ChatResult{Message: core.NewAssistantMessage("",
		core.ToolSelection{ToolName: "a"},
		core.ToolSelection{ToolName: "b"},
	)}

	assert.Equal(t, "a", ToolCallFromResult(res).ToolName)
	assert.Len(t, ToolCallsFromResult(res), 2)
}

func TestParseToolArguments(t *testing.T) {
	args, err := ParseToolArguments("")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = ParseToolArguments("null")
	require.NoError(t, err)
	assert.NotNil(t, args)

	args, err = ParseToolArguments(`{"a":2,"b":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, float64(2), args["a"])
	assert.Equal(t, "x", args["b"])

	_, err = ParseToolArguments("{not json")
	assert.Error(t, err)

	assert.Equal(t, "{}", EncodeToolArguments(nil))
	assert.JSONEq(t, `{"a":1}`, EncodeToolArguments(map[string]any{"a": 1}))
}
