// Package model defines the provider-agnostic backend abstraction the step
// engine consults on every cycle.
//
// A Backend receives the tool catalog and the assembled message history and
// returns a single assistant message. Tool requests travel on that message as
// core.ToolSelection values; ToolCallFromResult extracts the first one, or nil
// when the backend produced a final answer.
//
// Providers (OpenAI, Anthropic) live in sub-packages so the engine stays
// decoupled from vendor SDKs. ScriptedBackend replays canned turns for tests
// and examples.
package model
