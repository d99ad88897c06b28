package core

// ChatMemory is the durable conversation memory owned by a Task. Short method
// names mirror the other store contracts in this module.
//
// Get returns the messages that should be shown to the backend (an
// implementation may trim to a context window) while GetAll always returns
// the complete ordered history.
type ChatMemory interface {
	Get() []Message
	GetAll() []Message
	Put(msg Message)
	Set(msgs []Message)
	Reset()
}
