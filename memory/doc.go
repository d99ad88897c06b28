// Package memory contains concrete core.ChatMemory implementations.
//
// Buffer keeps the full conversation in process and exposes two views of it:
// GetAll returns every message, Get returns the most recent window that fits
// a token budget. The step engine reads durable history through Get and
// merges ephemeral messages on finalize through GetAll and Set.
//
// Token counting is pluggable (TokenCounter): NaiveCounter needs no data
// files, TiktokenCounter matches OpenAI tokenization.
package memory
