package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/model"
)

func TestBuildMessages_GroupsToolResults(t *testing.T) {
	history := []core.Message{
		core.NewSystemMessage("be brief"),
		core.NewUserMessage("add 2 and 3"),
		core.NewAssistantMessage("let me check", core.ToolSelection{ToolID: "tu_1", ToolName: "add", ToolKwargs: map[string]any{"a": 2, "b": 3}}),
		core.NewToolMessage("add", "tu_1", "5"),
		core.NewAssistantMessage("7"),
	}

	msgs := buildMessages(history)
	require.Len(t, msgs, 4)

	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Len(t, msgs[1].Content, 2) // text + tool_use
	assert.Equal(t, "user", string(msgs[2].Role))
	require.Len(t, msgs[2].Content, 1)
	require.NotNil(t, msgs[2].Content[0].OfToolResult)
	assert.Equal(t, "tu_1", msgs[2].Content[0].OfToolResult.ToolUseID)
	assert.Equal(t, "assistant", string(msgs[3].Role))

	system := extractSystem(history)
	require.Len(t, system, 1)
	assert.Equal(t, "be brief", system[0].Text)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "add",
			Description: "Add two numbers",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"a": map[string]any{"type": "number"}},
				"required":   []any{"a"},
			},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "add", tools[0].OfTool.Name)
	assert.Equal(t, []string{"a"}, tools[0].OfTool.InputSchema.Required)
}

func TestBuildTools_RequiredFromCreatedSchema(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name: "noop",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"x": map[string]any{"type": "string"}},
				"required":   []string{"x"},
			},
		},
	}, {
		Type:     "function",
		Function: model.FunctionDefinition{Name: "bare"},
	}})

	require.Len(t, tools, 2)
	assert.Equal(t, []string{"x"}, tools[0].OfTool.InputSchema.Required)
	assert.Nil(t, tools[1].OfTool.InputSchema.Required)
}
