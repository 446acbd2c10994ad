package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler processes a single event
type Handler func(event *Event)

// Bus dispatches events to subscribed handlers. Dispatch is synchronous and
// in subscription order: an Emit returns only after every handler has run,
// which gives observers one-tick convergence after a state change.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all handlers subscribed to its type
func (b *Bus) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[eventType]))
	copy(handlers, b.handlers[eventType])
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(eventType)).
		Str("module", module).
		Int("handlers", len(handlers)).
		Msg("Event emitted")

	for _, handler := range handlers {
		handler(event)
	}
}
