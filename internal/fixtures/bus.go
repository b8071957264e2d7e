package fixtures

import (
	"context"
	"sync"

	"github.com/andrevalim/pixhub/pkg/eventbus"
)

// BusRecorder is an eventbus.Bus that records emitted events instead of
// dispatching them.
type BusRecorder struct {
	mu     sync.Mutex
	Events []eventbus.Event

	// EmitErr, when set, is returned by every Emit call.
	EmitErr error
}

func (b *BusRecorder) Register(string, eventbus.HandlerFunc) {}

func (b *BusRecorder) Emit(_ context.Context, e eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EmitErr != nil {
		return b.EmitErr
	}
	b.Events = append(b.Events, e)
	return nil
}

// Emitted returns the recorded events of one type.
func (b *BusRecorder) Emitted(eventType string) []eventbus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []eventbus.Event
	for _, e := range b.Events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

var _ eventbus.Bus = (*BusRecorder)(nil)
