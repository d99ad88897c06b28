package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hupe1980/funcagent/callback"
	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/internal/util"
	"github.com/hupe1980/funcagent/logging"
	"github.com/hupe1980/funcagent/memory"
	"github.com/hupe1980/funcagent/model"
	"github.com/hupe1980/funcagent/tool"
)

// DefaultMaxFunctionCalls is the function call ceiling used when none is configured.
const DefaultMaxFunctionCalls = 5

// WorkerOptions configures a Worker.
//
// Use functional options with NewWorker to override defaults.
type WorkerOptions struct {
	// Tools is a fixed catalog offered on every step. Mutually exclusive with ToolRetriever.
	Tools []tool.Tool
	// ToolRetriever selects tools from the task input on every step.
	ToolRetriever tool.Retriever

	// SystemPrompt becomes a single system prefix message. It is rendered as a
	// text/template with PromptVars plus "tools", the names of the fixed tools.
	SystemPrompt string
	PromptVars   map[string]any
	// PrefixMessages precede the history on every backend call. Mutually
	// exclusive with SystemPrompt.
	PrefixMessages []core.Message

	// Verbose prints user input and tool calls to VerboseWriter.
	Verbose       bool
	VerboseWriter io.Writer

	// MaxFunctionCalls is advertised to the host loop; the worker only counts.
	MaxFunctionCalls int

	CallbackManager *callback.Manager
	Logger          logging.Logger
}

// Worker executes the steps of function-calling tasks. It holds no per-task
// state, so one Worker may drive many tasks concurrently.
type Worker struct {
	backend model.Backend
	catalog *tool.Catalog
	invoker *tool.Invoker
	prefix  []core.Message
	opts    WorkerOptions
	logger  logging.Logger
}

// NewWorker validates the configuration and creates a Worker.
func NewWorker(backend model.Backend, optFns ...func(o *WorkerOptions)) (*Worker, error) {
	opts := WorkerOptions{
		VerboseWriter:    os.Stdout,
		MaxFunctionCalls: DefaultMaxFunctionCalls,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.VerboseWriter == nil {
		opts.VerboseWriter = io.Discard
	}

	if opts.SystemPrompt != "" && len(opts.PrefixMessages) > 0 {
		return nil, ErrSystemPromptAndPrefix
	}

	if info := backend.Info(); !info.SupportsTools {
		return nil, fmt.Errorf("%w: model name %s", ErrFunctionCallingUnsupported, info.Name)
	}

	catalog, err := tool.NewCatalog(opts.Tools, opts.ToolRetriever)
	if err != nil {
		return nil, err
	}

	prefix := core.CloneMessages(opts.PrefixMessages)

	if opts.SystemPrompt != "" {
		prompt, err := renderSystemPrompt(opts)
		if err != nil {
			return nil, err
		}

		prefix = []core.Message{core.NewSystemMessage(prompt)}
	}

	invoker := tool.NewInvoker(func(o *tool.InvokerOptions) {
		o.Verbose = opts.Verbose
		o.Writer = opts.VerboseWriter
		o.Callbacks = opts.CallbackManager
		o.Logger = opts.Logger
	})

	return &Worker{
		backend: backend,
		catalog: catalog,
		invoker: invoker,
		prefix:  prefix,
		opts:    opts,
		logger:  opts.Logger,
	}, nil
}

func renderSystemPrompt(opts WorkerOptions) (string, error) {
	vars := make(map[string]any, len(opts.PromptVars)+1)

	names := make([]string, 0, len(opts.Tools))
	for _, t := range opts.Tools {
		names = append(names, t.Metadata().Name)
	}
	vars["tools"] = names

	for k, v := range opts.PromptVars {
		vars[k] = v
	}

	return util.RenderTemplate(opts.SystemPrompt, vars)
}

// MaxFunctionCalls returns the configured function call ceiling.
func (w *Worker) MaxFunctionCalls() int { return w.opts.MaxFunctionCalls }

// PrefixMessages returns a copy of the messages sent ahead of the history.
func (w *Worker) PrefixMessages() []core.Message { return core.CloneMessages(w.prefix) }

// GetTools resolves the catalog for input.
func (w *Worker) GetTools(ctx context.Context, input string) ([]tool.AsyncTool, error) {
	return w.catalog.Resolve(ctx, input)
}

// InitializeStep attaches a fresh TaskState to task and returns its first
// step, which carries the task input. A task without durable memory gets an
// empty memory.Buffer.
func (w *Worker) InitializeStep(task *core.Task) core.TaskStep {
	if task.Memory == nil {
		task.Memory = memory.NewBuffer()
	}

	task.State = core.NewTaskState()

	input := task.Input

	return core.TaskStep{
		TaskID: task.TaskID,
		StepID: core.NewID(),
		Input:  &input,
	}
}

// GetAllMessages returns the context sent to the backend: prefix messages,
// then the durable memory window, then the ephemeral buffer.
func (w *Worker) GetAllMessages(task *core.Task) []core.Message {
	durable := task.Memory.Get()

	var ephemeral []core.Message
	if task.State != nil {
		ephemeral = task.State.Messages()
	}

	msgs := make([]core.Message, 0, len(w.prefix)+len(durable)+len(ephemeral))
	msgs = append(msgs, w.prefix...)
	msgs = append(msgs, durable...)
	msgs = append(msgs, ephemeral...)

	return msgs
}

// RunStep executes one step on the calling goroutine.
func (w *Worker) RunStep(ctx context.Context, step core.TaskStep, task *core.Task) (*core.StepOutput, error) {
	return w.runStep(ctx, blockingScheduler{}, step, task)
}

// RunStepAsync executes one step without blocking the caller. Exactly one of
// the two channels receives a value; both are closed afterwards.
func (w *Worker) RunStepAsync(ctx context.Context, step core.TaskStep, task *core.Task) (<-chan *core.StepOutput, <-chan error) {
	out := make(chan *core.StepOutput, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		res, err := w.runStep(ctx, suspendingScheduler{}, step, task)
		if err != nil {
			errCh <- err
			return
		}

		out <- res
	}()

	return out, errCh
}

// StreamStep is not supported.
func (w *Worker) StreamStep(context.Context, core.TaskStep, *core.Task) (*core.StepOutput, error) {
	return nil, ErrStreamingUnsupported
}

// StreamStepAsync is not supported; the error channel yields
// ErrStreamingUnsupported immediately.
func (w *Worker) StreamStepAsync(context.Context, core.TaskStep, *core.Task) (<-chan *core.StepOutput, <-chan error) {
	out := make(chan *core.StepOutput)
	errCh := make(chan error, 1)

	errCh <- ErrStreamingUnsupported

	close(out)
	close(errCh)

	return out, errCh
}

// FinalizeTask appends the ephemeral buffer to durable memory in order and
// clears it. Calling it again merges nothing.
func (w *Worker) FinalizeTask(task *core.Task) {
	if task.State == nil {
		return
	}

	ephemeral := task.State.Messages()
	if len(ephemeral) > 0 {
		task.Memory.Set(append(task.Memory.GetAll(), ephemeral...))
	}

	task.State.Reset()

	w.logger.Debug("agent.task.finalized", "task_id", task.TaskID, "merged", len(ephemeral))
}

func (w *Worker) runStep(ctx context.Context, sched scheduler, step core.TaskStep, task *core.Task) (*core.StepOutput, error) {
	state := task.State
	if state == nil {
		return nil, ErrTaskNotInitialized
	}

	logger := w.logger
	logger.Debug("agent.step.start", "task_id", task.TaskID, "step_id", step.StepID, "has_input", step.HasInput())

	if step.HasInput() {
		state.AddMessage(core.NewUserMessage(*step.Input))

		if w.opts.Verbose {
			fmt.Fprintf(w.opts.VerboseWriter, "Added user message to memory: %s\n", *step.Input)
		}
	}

	tools, err := w.catalog.Resolve(ctx, task.Input)
	if err != nil {
		return nil, err
	}

	res, err := w.chat(ctx, sched, tools, w.GetAllMessages(task))
	if err != nil {
		logger.Error("agent.step.backend_failed", "task_id", task.TaskID, "step_id", step.StepID, "error", err.Error())
		return nil, fmt.Errorf("backend chat failed: %w", err)
	}

	response := res.Message
	response.Role = core.RoleAssistant

	sels := response.ToolSelections
	if len(sels) > 1 {
		logger.Warn("agent.step.extra_tool_calls_dropped",
			"task_id", task.TaskID, "requested", len(sels), "executed", sels[0].ToolName)
		response.ToolSelections = sels[:1]
	}

	state.AddMessage(response)

	if len(sels) == 0 {
		logger.Debug("agent.step.done", "task_id", task.TaskID, "step_id", step.StepID, "is_last", true)

		return &core.StepOutput{
			Output:    core.ChatResponse{Response: response.Content, Sources: state.Sources()},
			Step:      step,
			IsLast:    true,
			NextSteps: []core.TaskStep{},
		}, nil
	}

	sel := sels[0]

	output, err := sched.invoke(ctx, w.invoker, tools, sel)
	if err != nil {
		return nil, err
	}

	state.AddMessage(core.NewToolMessage(sel.ToolName, sel.ToolID, output.Content))
	state.AddSource(output)
	calls := state.IncrementCalls()

	logger.Debug("agent.step.done", "task_id", task.TaskID, "step_id", step.StepID,
		"is_last", false, "tool", sel.ToolName, "function_calls", calls)

	return &core.StepOutput{
		Output:    core.ChatResponse{Response: response.Content, Sources: state.Sources()},
		Step:      step,
		IsLast:    false,
		NextSteps: []core.TaskStep{step.NextStep()},
	}, nil
}

// chat wraps the backend call in an LLM callback scope.
func (w *Worker) chat(ctx context.Context, sched scheduler, tools []tool.AsyncTool, history []core.Message) (res *model.ChatResult, err error) {
	info := w.backend.Info()

	scope := w.opts.CallbackManager.Start(ctx, callback.EventLLM, map[callback.PayloadKey]any{
		callback.PayloadModel:    info.Name,
		callback.PayloadMessages: history,
	})
	defer func() {
		payload := map[callback.PayloadKey]any{callback.PayloadModel: info.Name}
		if res != nil {
			payload[callback.PayloadResponse] = res.Message
		}
		if err != nil {
			payload[callback.PayloadError] = err
		}
		scope.End(payload)
	}()

	start := time.Now()

	res, err = sched.chat(ctx, w.backend, tool.Definitions(tools), history)
	if err != nil {
		return nil, err
	}

	if res == nil {
		return nil, fmt.Errorf("model %s returned no result", info.Name)
	}

	w.logger.Debug("agent.backend.done", "model", info.Name, "duration_ms", time.Since(start).Milliseconds(),
		"tool_selections", len(res.Message.ToolSelections))

	return res, nil
}
