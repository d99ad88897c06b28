package agent

import (
	"context"

	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/model"
	"github.com/hupe1980/funcagent/tool"
)

// scheduler decides how the two suspension points of a step, the backend
// call and the tool invocation, are executed.
type scheduler interface {
	chat(ctx context.Context, backend model.Backend, defs []model.ToolDefinition, history []core.Message) (*model.ChatResult, error)
	invoke(ctx context.Context, inv *tool.Invoker, tools []tool.AsyncTool, sel core.ToolSelection) (core.ToolOutput, error)
}

// blockingScheduler runs everything on the caller's goroutine.
type blockingScheduler struct{}

func (blockingScheduler) chat(ctx context.Context, backend model.Backend, defs []model.ToolDefinition, history []core.Message) (*model.ChatResult, error) {
	return backend.ChatWithTools(ctx, defs, history)
}

func (blockingScheduler) invoke(ctx context.Context, inv *tool.Invoker, tools []tool.AsyncTool, sel core.ToolSelection) (core.ToolOutput, error) {
	return inv.Invoke(ctx, tools, sel)
}

// suspendingScheduler moves each suspension point to its own goroutine and
// gives up waiting when ctx is done.
type suspendingScheduler struct{}

func (suspendingScheduler) chat(ctx context.Context, backend model.Backend, defs []model.ToolDefinition, history []core.Message) (*model.ChatResult, error) {
	type reply struct {
		res *model.ChatResult
		err error
	}

	ch := make(chan reply, 1)

	go func() {
		res, err := backend.ChatWithTools(ctx, defs, history)
		ch <- reply{res: res, err: err}
	}()

	select {
	case r := <-ch:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (suspendingScheduler) invoke(ctx context.Context, inv *tool.Invoker, tools []tool.AsyncTool, sel core.ToolSelection) (core.ToolOutput, error) {
	return inv.InvokeAsync(ctx, tools, sel)
}
