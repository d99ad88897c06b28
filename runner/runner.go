package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/funcagent/agent"
	"github.com/hupe1980/funcagent/core"
	"github.com/hupe1980/funcagent/logging"
	"github.com/hupe1980/funcagent/memory"
)

// ErrMaxFunctionCalls is returned when a task reaches the function call
// ceiling before the backend produced a final answer.
var ErrMaxFunctionCalls = errors.New("max function calls reached")

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Memory is the durable conversation history shared by all tasks.
	Memory core.ChatMemory
	// MaxFunctionCalls overrides the worker's ceiling; zero keeps it and a
	// negative value disables the ceiling.
	MaxFunctionCalls int
	// StepBufferSize sets channel buffering for Run.
	StepBufferSize int
	Logger         logging.Logger
}

// Runner drives tasks through a Worker. Public methods are safe for
// concurrent use.
type Runner struct {
	worker *agent.Worker
	opts   Options

	taskMu sync.Mutex // one task at a time on the shared memory

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(worker *agent.Worker, optFns ...func(o *Options)) *Runner {
	opts := Options{
		StepBufferSize: 8,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Memory == nil {
		opts.Memory = memory.NewBuffer()
	}

	opts.Logger = logging.OrNoOp(opts.Logger)

	switch {
	case opts.MaxFunctionCalls == 0:
		opts.MaxFunctionCalls = worker.MaxFunctionCalls()
	case opts.MaxFunctionCalls < 0:
		opts.MaxFunctionCalls = 0
	}

	return &Runner{
		worker:     worker,
		opts:       opts,
		activeRuns: make(map[string]context.CancelFunc),
	}
}

// Memory returns the durable conversation memory.
func (r *Runner) Memory() core.ChatMemory { return r.opts.Memory }

// Chat runs a task for input to completion on the calling goroutine. When the
// ceiling is hit the last step's response is returned together with an error
// wrapping ErrMaxFunctionCalls; the task is finalized in both cases.
func (r *Runner) Chat(ctx context.Context, input string) (*core.ChatResponse, error) {
	task := core.NewTask(input, r.opts.Memory)

	var last *core.StepOutput

	err := r.drive(ctx, task, func(ctx context.Context, step core.TaskStep) (*core.StepOutput, error) {
		return r.worker.RunStep(ctx, step, task)
	}, func(out *core.StepOutput) { last = out })

	if last == nil {
		return nil, err
	}

	resp := last.Output

	return &resp, err
}

// Run starts a task asynchronously and streams every step output. The error
// channel yields at most one error. Both channels are closed when the task
// ends. The returned id can be passed to Cancel.
func (r *Runner) Run(ctx context.Context, input string) (string, <-chan *core.StepOutput, <-chan error) {
	task := core.NewTask(input, r.opts.Memory)

	stepsCh := make(chan *core.StepOutput, r.opts.StepBufferSize)
	errCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.activeRuns[task.TaskID] = cancel
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.activeRuns, task.TaskID)
			r.mu.Unlock()

			cancel()
			close(stepsCh)
			close(errCh)
		}()

		err := r.drive(ctx, task, func(ctx context.Context, step core.TaskStep) (*core.StepOutput, error) {
			outCh, stepErrCh := r.worker.RunStepAsync(ctx, step, task)
			if out, ok := <-outCh; ok {
				return out, nil
			}
			return nil, <-stepErrCh
		}, func(out *core.StepOutput) {
			select {
			case stepsCh <- out:
			case <-ctx.Done():
			}
		})

		if err != nil {
			errCh <- err
		}
	}()

	return task.TaskID, stepsCh, errCh
}

// ChatAsync is Chat without blocking the caller.
func (r *Runner) ChatAsync(ctx context.Context, input string) (<-chan *core.ChatResponse, <-chan error) {
	respCh := make(chan *core.ChatResponse, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		_, steps, errs := r.Run(ctx, input)

		var last *core.StepOutput
		for out := range steps {
			last = out
		}

		err := <-errs

		if last != nil && (err == nil || errors.Is(err, ErrMaxFunctionCalls)) {
			resp := last.Output
			respCh <- &resp
		}

		if err != nil {
			errCh <- err
		}
	}()

	return respCh, errCh
}

// Cancel cancels a running task by ID.
func (r *Runner) Cancel(taskID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[taskID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("task %s not found", taskID)
	}

	cancel()

	return nil
}

// drive is the host loop shared by Chat and Run. The task is finalized when
// it ends normally or at the ceiling; a failed step leaves durable memory
// untouched.
func (r *Runner) drive(
	ctx context.Context,
	task *core.Task,
	run func(ctx context.Context, step core.TaskStep) (*core.StepOutput, error),
	emit func(out *core.StepOutput),
) (err error) {
	r.taskMu.Lock()
	defer r.taskMu.Unlock()

	logger := logging.ForTask(r.opts.Logger, task.TaskID)
	limiter := core.NewCallLimiter(r.opts.MaxFunctionCalls)
	start := time.Now()
	steps := 0

	defer func() {
		if tl, ok := logger.(logging.TaskLogger); ok {
			tl.LogTask(steps, limiter.Count(), time.Since(start), err)
		} else {
			logger.Debug("runner.task.done", "task_id", task.TaskID, "steps", steps, "function_calls", limiter.Count())
		}
	}()

	step := r.worker.InitializeStep(task)

	for {
		out, err := run(ctx, step)
		if err != nil {
			logger.Error("runner.step.failed", "task_id", task.TaskID, "step_id", step.StepID, "error", err.Error())
			return err
		}

		steps++
		emit(out)

		if out.IsLast {
			r.worker.FinalizeTask(task)
			return nil
		}

		limiter.Increment()

		if limiter.Reached() {
			r.worker.FinalizeTask(task)
			logger.Warn("runner.task.ceiling", "task_id", task.TaskID, "max_function_calls", r.opts.MaxFunctionCalls)
			return fmt.Errorf("%w: %d", ErrMaxFunctionCalls, r.opts.MaxFunctionCalls)
		}

		if len(out.NextSteps) == 0 {
			return fmt.Errorf("step %s is not last but has no continuation", out.Step.StepID)
		}

		step = out.NextSteps[0]
	}
}
