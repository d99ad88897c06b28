// Package agent contains the function-calling step engine.
//
// A Worker drives one task step at a time:
//
//  1. user input (first step only) is appended to the task's ephemeral buffer
//  2. the tool catalog is resolved from the task input
//  3. prefix messages, durable memory and the ephemeral buffer are sent to the backend
//  4. the backend's reply is appended to the ephemeral buffer
//  5. without a tool selection the step is the last one; otherwise the
//     selected tool runs, its output is recorded and a continuation step
//     without input is returned
//
// RunStep blocks the calling goroutine, RunStepAsync suspends at the backend
// call and at the tool invocation. Both share one implementation. The caller
// must run the steps of a task sequentially and call FinalizeTask once the
// last step is reached; runner.Runner packages that loop.
//
// The Worker counts function calls on the task state but does not stop at
// MaxFunctionCalls; the ceiling is enforced by the host loop.
package agent
