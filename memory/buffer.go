package memory

import (
	"sync"

	"github.com/hupe1980/funcagent/core"
)

// DefaultTokenLimit bounds the window returned by Buffer.Get.
const DefaultTokenLimit = 3000

// BufferOptions configure a Buffer.
type BufferOptions struct {
	// TokenLimit bounds Get; zero or negative disables trimming.
	TokenLimit int
	Counter    TokenCounter
}

// Buffer is a mutex-guarded, process-local chat memory.
type Buffer struct {
	mu       sync.RWMutex
	messages []core.Message
	opts     BufferOptions
}

var _ core.ChatMemory = (*Buffer)(nil)

// NewBuffer creates an empty Buffer.
func NewBuffer(optFns ...func(o *BufferOptions)) *Buffer {
	opts := BufferOptions{
		TokenLimit: DefaultTokenLimit,
		Counter:    NaiveCounter{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Counter == nil {
		opts.Counter = NaiveCounter{}
	}

	return &Buffer{opts: opts}
}

// NewBufferFromMessages creates a Buffer seeded with history.
func NewBufferFromMessages(history []core.Message, optFns ...func(o *BufferOptions)) *Buffer {
	b := NewBuffer(optFns...)
	b.messages = core.CloneMessages(history)

	return b
}

// Get returns the most recent messages that fit the token limit. Trimming
// removes the oldest messages first and never lets the window start with an
// assistant or tool message, so a tool exchange is not split from the
// request that caused it. If not even the last message fits, Get returns an
// empty slice.
func (b *Buffer) Get() []core.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.opts.TokenLimit <= 0 {
		return core.CloneMessages(b.messages)
	}

	total := len(b.messages)
	n := total
	count := b.tokens(b.messages[total-n:])

	for count > b.opts.TokenLimit && n > 1 {
		n--
		for n > 0 && startsMidExchange(b.messages[total-n]) {
			n--
		}

		if n <= 0 {
			break
		}

		count = b.tokens(b.messages[total-n:])
	}

	if n <= 0 || count > b.opts.TokenLimit {
		return []core.Message{}
	}

	return core.CloneMessages(b.messages[total-n:])
}

func startsMidExchange(m core.Message) bool {
	return m.Role == core.RoleAssistant || m.Role == core.RoleTool
}

func (b *Buffer) tokens(msgs []core.Message) int {
	count := 0
	for _, m := range msgs {
		count += b.opts.Counter.Count(m.Content)
	}

	return count
}

// GetAll returns every stored message.
func (b *Buffer) GetAll() []core.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return core.CloneMessages(b.messages)
}

// Put appends a message.
func (b *Buffer) Put(m core.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = append(b.messages, m)
}

// Set replaces the stored history.
func (b *Buffer) Set(msgs []core.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = core.CloneMessages(msgs)
}

// Reset clears the stored history.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = nil
}

// Len reports the number of stored messages.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.messages)
}
