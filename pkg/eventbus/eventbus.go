// Package eventbus defines the contract for publishing and handling
// domain events.
package eventbus

import "context"

// Event is implemented by every domain event.
type Event interface {
	Type() string
}

// HandlerFunc processes one event. Errors are logged by the bus, never
// propagated to the emitter.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus dispatches events to registered handlers.
type Bus interface {
	Register(eventType string, handler HandlerFunc)
	Emit(ctx context.Context, e Event) error
}
