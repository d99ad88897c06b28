// Package runner implements the host loop around agent.Worker.
//
// A Runner owns one durable conversation memory. Each Chat call creates a
// task, drives its steps strictly in sequence until the worker reports the
// last step or the function call ceiling is reached, and then finalizes the
// task so its messages become part of the conversation.
//
// Tasks on one Runner are serialized because they share the conversation
// memory; create several Runners over one Worker to serve independent
// conversations concurrently.
package runner
