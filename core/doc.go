// Package core provides the foundational domain types shared by the
// funcagent packages. It defines:
//
//   - Messages and tool selections exchanged with a reasoning backend
//   - ToolOutput values recording the result (or captured error) of a tool call
//   - Tasks, task steps and the typed per-task TaskState scratch area
//   - The ChatMemory contract implemented by durable conversation stores
//
// The package intentionally keeps implementation concerns (backends, tool
// execution, the step engine) out of scope, exposing small value types and
// interfaces so the other packages can depend on it without cycles.
package core
