package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/codepay/pkg/domain/events"
	"github.com/amirasaad/codepay/pkg/eventbus"
)

// MemoryBus dispatches events synchronously to in-process handlers. Handler
// errors are logged and never returned to the emitter.
type MemoryBus struct {
	mu        sync.RWMutex
	handlers  map[string][]eventbus.HandlerFunc
	published []events.Event
	logger    *slog.Logger
}

// NewWithMemory creates an in-process bus.
func NewWithMemory(logger *slog.Logger) *MemoryBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register adds a handler for eventType.
func (b *MemoryBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit runs every handler registered for the event type in registration order.
func (b *MemoryBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[event.Type()]...)
	b.mu.Unlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, event)
	}
	return nil
}

func (b *MemoryBus) dispatch(ctx context.Context, h eventbus.HandlerFunc, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic recovered in event handler", "type", event.Type(), "panic", r)
		}
	}()
	if err := h(ctx, event); err != nil {
		b.logger.Error("failed to process event", "type", event.Type(), "error", err)
	}
}

// Published returns a copy of every event emitted so far.
func (b *MemoryBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event(nil), b.published...)
}

// PublishedOf returns the emitted events of one type.
func (b *MemoryBus) PublishedOf(eventType string) []events.Event {
	var out []events.Event
	for _, e := range b.Published() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// ClearPublished forgets the recorded events.
func (b *MemoryBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryBus)(nil)
