package agent

import "errors"

var (
	// ErrFunctionCallingUnsupported is returned by NewWorker when the backend
	// cannot call tools.
	ErrFunctionCallingUnsupported = errors.New("model does not support function calling")

	// ErrSystemPromptAndPrefix is returned by NewWorker when both a system
	// prompt and explicit prefix messages are configured.
	ErrSystemPromptAndPrefix = errors.New("cannot specify both system_prompt and prefix_messages")

	// ErrStreamingUnsupported is returned by the streaming step variants.
	ErrStreamingUnsupported = errors.New("streaming is not supported by the function calling worker")

	// ErrTaskNotInitialized is returned when a step runs on a task whose
	// state was never initialized (or was already finalized and dropped).
	ErrTaskNotInitialized = errors.New("task state not initialized")
)
