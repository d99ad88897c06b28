package core

import "sync"

// CallLimiter counts the function calls of one task against a ceiling.
// A ceiling of zero or less never stops the task.
type CallLimiter struct {
	mu      sync.Mutex
	ceiling int
	used    int
}

func NewCallLimiter(ceiling int) *CallLimiter {
	return &CallLimiter{ceiling: ceiling}
}

// Increment records one call and returns the running total.
func (cl *CallLimiter) Increment() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.used++

	return cl.used
}

// Reached reports whether the ceiling has been used up.
func (cl *CallLimiter) Reached() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.ceiling > 0 && cl.used >= cl.ceiling
}

func (cl *CallLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return cl.used
}

// Remaining is -1 when there is no ceiling.
func (cl *CallLimiter) Remaining() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.ceiling <= 0 {
		return -1
	}

	return max(cl.ceiling-cl.used, 0)
}
