// Package logging provides a minimal logging interface and adapters for funcagent.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the worker, invoker and runner use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - StructuredLogger with task / step scoping and domain helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	worker, err := agent.NewWorker(backend, func(o *agent.WorkerOptions) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
