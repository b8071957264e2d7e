package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/andrevalim/pixhub/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct{ name string }

func (e testEvent) Type() string { return e.name }

func newBus() *MemoryBus {
	return NewMemoryBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestMemoryBusDispatchesByType(t *testing.T) {
	bus := newBus()
	var got []string
	bus.Register("a", func(_ context.Context, e eventbus.Event) error {
		got = append(got, "a1:"+e.Type())
		return nil
	})
	bus.Register("a", func(context.Context, eventbus.Event) error {
		got = append(got, "a2")
		return nil
	})
	bus.Register("b", func(context.Context, eventbus.Event) error {
		got = append(got, "b")
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), testEvent{"a"}))
	assert.Equal(t, []string{"a1:a", "a2"}, got)
}

func TestMemoryBusSwallowsHandlerErrors(t *testing.T) {
	bus := newBus()
	calls := 0
	bus.Register("a", func(context.Context, eventbus.Event) error {
		calls++
		return errors.New("boom")
	})
	bus.Register("a", func(context.Context, eventbus.Event) error {
		calls++
		return nil
	})

	assert.NoError(t, bus.Emit(context.Background(), testEvent{"a"}))
	assert.Equal(t, 2, calls)
}

func TestMemoryBusRecoversPanics(t *testing.T) {
	bus := newBus()
	reached := false
	bus.Register("a", func(context.Context, eventbus.Event) error {
		panic("handler exploded")
	})
	bus.Register("a", func(context.Context, eventbus.Event) error {
		reached = true
		return nil
	})

	assert.NoError(t, bus.Emit(context.Background(), testEvent{"a"}))
	assert.True(t, reached)
}

func TestMemoryBusNoHandlers(t *testing.T) {
	assert.NoError(t, newBus().Emit(context.Background(), testEvent{"ghost"}))
}
