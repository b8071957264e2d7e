// Package eventbus provides the event bus implementations: an in-memory
// dispatcher for the in-process handlers and a Kafka mirror that streams
// every emitted event to a topic for external consumers.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/andrevalim/pixhub/pkg/eventbus"
)

// MemoryBus dispatches events synchronously to in-process handlers.
// Handler errors are logged, never propagated: the emitter already
// committed its state change and must not fail because a side effect
// did.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]eventbus.HandlerFunc
	logger   *slog.Logger
}

// NewMemoryBus creates an in-memory event bus.
func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register adds a handler for the event type.
func (b *MemoryBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to every handler registered for its type.
func (b *MemoryBus) Emit(ctx context.Context, event eventbus.Event) error {
	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[event.Type()]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("panic recovered in event handler",
						"type", event.Type(), "panic", r)
				}
			}()
			if err := handler(ctx, event); err != nil {
				b.logger.Error("event handler failed",
					"type", event.Type(), "error", err)
			}
		}()
	}
	return nil
}

var _ eventbus.Bus = (*MemoryBus)(nil)
