// Package config loads the application configuration used by the funcagent
// command. Library users configure Worker, Runner and the providers through
// functional options instead.
package config
