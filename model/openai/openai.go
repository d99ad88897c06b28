// Package openai provides an implementation of model.Backend using the OpenAI
// Chat Completions API with function/tool calling. It converts the engine's
// message history into the SDK's message format and maps returned tool calls
// back into core.ToolSelection values.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the OpenAI backend adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string // empty uses OPENAI_API_KEY
	BaseURL             string
}

// Model wraps the OpenAI Chat Completions API behind the model.Backend interface.
type Model struct {
	client *openai.Client
	opts   Options
}

var _ model.Backend = (*Model)(nil)

// NewModel creates a new OpenAI backend using the official client.
// Credentials are read from OPENAI_API_KEY by the SDK unless APIKey is set.
func NewModel(optFns ...func(o *Options)) *Model {
	var probe Options
	for _, fn := range optFns {
		fn(&probe)
	}

	var clientOpts []option.RequestOption
	if probe.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(probe.APIKey))
	}
	if probe.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(probe.BaseURL))
	}

	client := openai.NewClient(clientOpts...)

	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI backend from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// ChatWithTools implements model.Backend with a single non-streaming completion.
func (m *Model) ChatWithTools(ctx context.Context, tools []model.ToolDefinition, history []core.Message) (*model.ChatResult, error) {
	params := m.buildParams(tools, buildMessages(history))

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	ch0 := resp.Choices[0]

	selections := make([]core.ToolSelection, 0, len(ch0.Message.ToolCalls))
	for _, tc := range ch0.Message.ToolCalls {
		args, err := model.ParseToolArguments(tc.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("openai tool call %s: %w", tc.Function.Name, err)
		}

		selections = append(selections, core.ToolSelection{
			ToolID:     tc.ID,
			ToolName:   tc.Function.Name,
			ToolKwargs: args,
		})
	}

	return &model.ChatResult{
		Message: core.NewAssistantMessage(ch0.Message.Content, selections...),
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		Raw: resp,
	}, nil
}

// buildMessages converts the history into OpenAI chat messages. Assistant
// messages carrying tool selections are replayed as tool calls so the
// following tool-role messages correlate by call id.
func buildMessages(history []core.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case core.RoleAssistant:
			if !msg.HasToolSelections() {
				messages = append(messages, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCallParams(msg.ToolSelections),
			}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		default:
			if msg.Content != "" {
				messages = append(messages, openai.UserMessage(msg.Content))
			}
		}
	}

	return messages
}

func toolCallParams(sels []core.ToolSelection) []openai.ChatCompletionMessageToolCallParam {
	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(sels))
	for _, sel := range sels {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   sel.ToolID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      sel.ToolName,
				Arguments: model.EncodeToolArguments(sel.ToolKwargs),
			},
		})
	}
	return toolCalls
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(
	defs []model.ToolDefinition,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(defs) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, tdef := range defs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// Info returns metadata describing this OpenAI backend.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
