// Package callback carries call-start / call-end observability events out of
// the step engine. Handlers are optional: a nil *Manager is valid and turns
// every emission into a no-op, so control flow never depends on observers.
package callback

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/funcagent/core"
)

// EventType identifies what a callback event wraps.
type EventType string

const (
	// EventFunctionCall wraps one tool invocation.
	EventFunctionCall EventType = "function_call"
	// EventLLM wraps one backend call.
	EventLLM EventType = "llm"
)

// PayloadKey names a payload entry.
type PayloadKey string

const (
	PayloadTool           PayloadKey = "tool"            // tool name (string)
	PayloadFunctionCall   PayloadKey = "function_call"   // argument mapping (map[string]any)
	PayloadFunctionOutput PayloadKey = "function_output" // core.ToolOutput
	PayloadModel          PayloadKey = "model"           // backend name (string)
	PayloadMessages       PayloadKey = "messages"        // []core.Message sent to the backend
	PayloadResponse       PayloadKey = "response"        // core.Message returned by the backend
	PayloadError          PayloadKey = "error"           // error, only on end events
)

// Event is delivered to handlers at the start and at the end of a scope.
// Start and end events of one scope share the same ID.
type Event struct {
	ID      string
	Type    EventType
	Payload map[PayloadKey]any
	Time    time.Time
}

// Handler observes callback events. Implementations must be safe for
// concurrent use; they run synchronously on the emitting goroutine.
type Handler interface {
	OnEventStart(ctx context.Context, e Event)
	OnEventEnd(ctx context.Context, e Event)
}

// HandlerFuncs adapts plain functions to the Handler interface. Either
// function may be nil.
type HandlerFuncs struct {
	Start func(ctx context.Context, e Event)
	End   func(ctx context.Context, e Event)
}

// OnEventStart calls Start if set.
func (h HandlerFuncs) OnEventStart(ctx context.Context, e Event) {
	if h.Start != nil {
		h.Start(ctx, e)
	}
}

// OnEventEnd calls End if set.
func (h HandlerFuncs) OnEventEnd(ctx context.Context, e Event) {
	if h.End != nil {
		h.End(ctx, e)
	}
}

// Manager fans events out to registered handlers in registration order.
type Manager struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewManager creates a manager with the given handlers.
func NewManager(handlers ...Handler) *Manager {
	return &Manager{handlers: append([]Handler(nil), handlers...)}
}

// AddHandler registers an additional handler.
func (m *Manager) AddHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers = append(m.handlers, h)
}

func (m *Manager) snapshot() []Handler {
	if m == nil {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Handler(nil), m.handlers...)
}

// Start emits a start event and returns the scope whose End emits the
// matching end event. Callers should defer scope.End so the end event fires
// on every return path.
func (m *Manager) Start(ctx context.Context, typ EventType, payload map[PayloadKey]any) *Scope {
	s := &Scope{
		handlers: m.snapshot(),
		ctx:      ctx,
		id:       core.NewID(),
		typ:      typ,
	}

	e := Event{ID: s.id, Type: typ, Payload: payload, Time: time.Now()}
	for _, h := range s.handlers {
		h.OnEventStart(ctx, e)
	}

	return s
}

// Scope is one open start/end pair.
type Scope struct {
	handlers []Handler
	ctx      context.Context
	id       string
	typ      EventType
	once     sync.Once
}

// ID returns the identifier shared by the start and end events.
func (s *Scope) ID() string { return s.id }

// End emits the end event. Only the first call has an effect.
func (s *Scope) End(payload map[PayloadKey]any) {
	s.once.Do(func() {
		e := Event{ID: s.id, Type: s.typ, Payload: payload, Time: time.Now()}
		for _, h := range s.handlers {
			h.OnEventEnd(s.ctx, e)
		}
	})
}
