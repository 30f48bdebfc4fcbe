package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler records the events it receives.
type MockEventHandler struct {
	LastEvent    *Event
	HandlerError error
	HandledCount int
}

// HandleEvent implements EventHandler.
func (h *MockEventHandler) HandleEvent(_ context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newEvent := func(t *testing.T) *Event {
		event, err := NewEvent(TypeTaskAssigned, TaskAssigned{TaskID: 1, AssigneeID: 2, ActorID: 3})
		require.NoError(t, err)
		return event
	}

	t.Run("no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t)))
	})

	t.Run("every handler receives the event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		h1, h2 := &MockEventHandler{}, &MockEventHandler{}
		emitter.RegisterHandler(h1)
		emitter.RegisterHandler(h2)

		event := newEvent(t)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, h1.HandledCount)
		assert.Equal(t, 1, h2.HandledCount)
		assert.Same(t, event, h1.LastEvent)
		assert.Same(t, event, h2.LastEvent)
	})

	t.Run("failing handler does not stop the others", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		failing := &MockEventHandler{HandlerError: errors.New("handler error")}
		ok := &MockEventHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(ok)

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		assert.EqualError(t, err, "handler error")
		assert.Equal(t, 1, failing.HandledCount)
		assert.Equal(t, 1, ok.HandledCount)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(nil)
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t)))
	})
}
