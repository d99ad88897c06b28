package core

// TaskStep is one cycle of the execution loop. Only the first step of a task
// carries the user's raw input; continuation steps have a nil Input because
// their content lives in the task's TaskState.
type TaskStep struct {
	TaskID string  `json:"task_id"`
	StepID string  `json:"step_id"`
	Input  *string `json:"input,omitempty"`
}

// HasInput reports whether the step carries raw user input.
func (s TaskStep) HasInput() bool { return s.Input != nil }

// NextStep derives a continuation step of the same task with a fresh id and
// no input.
func (s TaskStep) NextStep() TaskStep {
	return TaskStep{TaskID: s.TaskID, StepID: NewID()}
}

// Task is one end-to-end user request handled by the loop. Memory is the
// durable conversation history; State is the ephemeral execution context
// created by the step engine and cleared on finalization.
type Task struct {
	TaskID string         `json:"task_id"`
	Input  string         `json:"input"`
	Memory ChatMemory     `json:"-"`
	State  *TaskState     `json:"-"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewTask creates a task for input backed by the given durable memory.
func NewTask(input string, memory ChatMemory) *Task {
	return &Task{
		TaskID: NewID(),
		Input:  input,
		Memory: memory,
		Extra:  map[string]any{},
	}
}

// TaskState is the typed per-task scratch area: accumulated tool outputs, a
// function call counter and the ephemeral message buffer. It is owned by a
// single Task and mutated only by the step engine, so it carries no lock.
//
// Contract:
//   - messages are kept in production order and are only ever appended
//   - Messages and Sources return copies
//   - Reset clears the ephemeral buffer only
type TaskState struct {
	sources   []ToolOutput
	callCount int
	messages  []Message
}

// NewTaskState returns an empty state.
func NewTaskState() *TaskState {
	return &TaskState{sources: []ToolOutput{}, messages: []Message{}}
}

// AddMessage appends msg to the ephemeral buffer.
func (s *TaskState) AddMessage(msg Message) { s.messages = append(s.messages, msg) }

// Messages returns a copy of the ephemeral buffer in production order.
func (s *TaskState) Messages() []Message { return CloneMessages(s.messages) }

// AddSource records a tool output produced during this task.
func (s *TaskState) AddSource(out ToolOutput) { s.sources = append(s.sources, out) }

// Sources returns a copy of all tool outputs recorded so far.
func (s *TaskState) Sources() []ToolOutput {
	out := make([]ToolOutput, len(s.sources))
	copy(out, s.sources)
	return out
}

// IncrementCalls bumps the function call counter and returns the new value.
func (s *TaskState) IncrementCalls() int {
	s.callCount++
	return s.callCount
}

// CallCount returns how many tools were invoked for this task.
func (s *TaskState) CallCount() int { return s.callCount }

// Reset clears the ephemeral message buffer.
func (s *TaskState) Reset() { s.messages = []Message{} }

// ChatResponse is the response assembled after a step: the backend's text
// plus every tool output accumulated by the task so far.
type ChatResponse struct {
	Response string       `json:"response"`
	Sources  []ToolOutput `json:"sources"`
}

// String returns the response text.
func (r ChatResponse) String() string { return r.Response }

// StepOutput is the result of running one step: the produced response, a
// flag marking whether the task is finished and zero or one continuation.
type StepOutput struct {
	Output    ChatResponse `json:"output"`
	Step      TaskStep     `json:"step"`
	IsLast    bool         `json:"is_last"`
	NextSteps []TaskStep   `json:"next_steps"`
}
