package core

// Role identifies the author of a Message.
type Role string

const (
	// RoleUser marks messages authored by the end user.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by the reasoning backend.
	RoleAssistant Role = "assistant"
	// RoleTool marks messages carrying the output of a tool call.
	RoleTool Role = "tool"
	// RoleSystem marks instruction messages placed ahead of the history.
	RoleSystem Role = "system"
)

// ToolSelection is a backend decision to invoke one named tool. It is
// consumed exactly once by the step that received it.
type ToolSelection struct {
	ToolID     string         `json:"tool_id"`     // Call identifier echoed back in the tool message
	ToolName   string         `json:"tool_name"`   // Name of the selected tool
	ToolKwargs map[string]any `json:"tool_kwargs"` // Decoded argument mapping
}

// Message is a single conversational turn. Once appended to any buffer it
// must be treated as immutable.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolName and ToolCallID are only set on tool-role messages.
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolSelections carries the tool requests of an assistant message so
	// provider adapters can replay the exchange on the next cycle.
	ToolSelections []ToolSelection `json:"tool_selections,omitempty"`
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage creates a system instruction message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewAssistantMessage creates a backend message with optional tool selections.
func NewAssistantMessage(content string, selections ...ToolSelection) Message {
	return Message{Role: RoleAssistant, Content: content, ToolSelections: selections}
}

// NewToolMessage records the output of a tool call, correlated with the
// originating selection via callID.
func NewToolMessage(toolName, callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolName: toolName, ToolCallID: callID}
}

// String renders the message as "role: content".
func (m Message) String() string { return string(m.Role) + ": " + m.Content }

// HasToolSelections reports whether the message requests at least one tool.
func (m Message) HasToolSelections() bool { return len(m.ToolSelections) > 0 }

// CloneMessages returns a copy of msgs so callers cannot mutate the source
// slice. A nil input yields an empty, non-nil slice.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// ToolOutput is the recorded result of one tool invocation. Failed calls are
// represented as well: Content then starts with "Encountered error: " and
// IsError is set.
type ToolOutput struct {
	Content   string         `json:"content"`
	ToolName  string         `json:"tool_name"`
	RawInput  map[string]any `json:"raw_input"`
	RawOutput any            `json:"raw_output"`
	IsError   bool           `json:"is_error,omitempty"`
}

// String returns the display content of the output.
func (o ToolOutput) String() string { return o.Content }
