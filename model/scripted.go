package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/funcagent/core"
)

// ScriptedCall records one ChatWithTools invocation observed by a ScriptedBackend.
type ScriptedCall struct {
	Tools   []ToolDefinition
	History []core.Message
}

// ScriptedOptions configure a ScriptedBackend.
type ScriptedOptions struct {
	Name          string
	SupportsTools bool
	// Fallback is returned once the script is exhausted. When nil an error is
	// returned instead.
	Fallback *core.Message
}

// ScriptedBackend is a lightweight in-memory Backend useful for tests & examples.
// It replays a fixed sequence of assistant turns, one per call.
type ScriptedBackend struct {
	mu    sync.Mutex
	opts  ScriptedOptions
	turns []core.Message
	errs  map[int]error
	calls []ScriptedCall
}

// NewScriptedBackend constructs a ScriptedBackend with tool support enabled.
func NewScriptedBackend(turns []core.Message, optFns ...func(o *ScriptedOptions)) *ScriptedBackend {
	opts := ScriptedOptions{
		Name:          "scripted",
		SupportsTools: true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ScriptedBackend{
		opts:  opts,
		turns: append([]core.Message(nil), turns...),
		errs:  map[int]error{},
	}
}

// AddTurn appends an assistant turn to the script.
func (b *ScriptedBackend) AddTurn(msg core.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.turns = append(b.turns, msg)
}

// FailAt makes the call with the given zero-based index return err.
func (b *ScriptedBackend) FailAt(call int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.errs[call] = err
}

// ChatWithTools implements Backend.
func (b *ScriptedBackend) ChatWithTools(ctx context.Context, tools []ToolDefinition, history []core.Message) (*ChatResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := len(b.calls)
	b.calls = append(b.calls, ScriptedCall{
		Tools:   append([]ToolDefinition(nil), tools...),
		History: core.CloneMessages(history),
	})

	if err, ok := b.errs[idx]; ok {
		return nil, err
	}

	var msg core.Message

	switch {
	case len(b.turns) > 0:
		msg = b.turns[0]
		b.turns = b.turns[1:]
	case b.opts.Fallback != nil:
		msg = *b.opts.Fallback
	default:
		return nil, fmt.Errorf("scripted backend exhausted after %d calls", idx)
	}

	msg.Role = core.RoleAssistant

	return &ChatResult{Message: msg}, nil
}

// Calls returns a copy of every recorded invocation.
func (b *ScriptedBackend) Calls() []ScriptedCall {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]ScriptedCall(nil), b.calls...)
}

// Info implements Backend.
func (b *ScriptedBackend) Info() Info {
	return Info{
		Name:          b.opts.Name,
		Provider:      "scripted",
		SupportsTools: b.opts.SupportsTools,
	}
}
