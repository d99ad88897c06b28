package testutil

import (
	"fmt"

	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/model"
)

// ScriptBuilder provides a fluent helper for scripting backend turns.
// Example:
//
//	backend := NewScriptBuilder().Call("add", map[string]any{"a": 2, "b": 3}).Answer("7").Backend()
//
// Call IDs are generated as call_1, call_2, ... unless CallWithID is used.
type ScriptBuilder struct {
	turns []core.Message
	calls int
}

// NewScriptBuilder creates an empty builder.
func NewScriptBuilder() *ScriptBuilder { return &ScriptBuilder{} }

// Call appends a turn selecting one tool (chainable).
func (b *ScriptBuilder) Call(name string, args map[string]any) *ScriptBuilder {
	b.calls++
	return b.CallWithID(fmt.Sprintf("call_%d", b.calls), name, args)
}

// CallWithID appends a turn selecting one tool with an explicit call id (chainable).
func (b *ScriptBuilder) CallWithID(id, name string, args map[string]any) *ScriptBuilder {
	b.turns = append(b.turns, core.NewAssistantMessage("", core.ToolSelection{
		ToolID:     id,
		ToolName:   name,
		ToolKwargs: args,
	}))
	return b
}

// Turn appends an arbitrary assistant turn (chainable).
func (b *ScriptBuilder) Turn(msg core.Message) *ScriptBuilder {
	b.turns = append(b.turns, msg)
	return b
}

// Answer appends a final turn without tool selection (chainable).
func (b *ScriptBuilder) Answer(text string) *ScriptBuilder {
	b.turns = append(b.turns, core.NewAssistantMessage(text))
	return b
}

// Build returns the scripted turns.
func (b *ScriptBuilder) Build() []core.Message { return core.CloneMessages(b.turns) }

// Backend returns a ScriptedBackend replaying the turns.
func (b *ScriptBuilder) Backend(optFns ...func(o *model.ScriptedOptions)) *model.ScriptedBackend {
	return model.NewScriptedBackend(b.Build(), optFns...)
}
