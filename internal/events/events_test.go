package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/domain"
)

func TestNewEvent(t *testing.T) {
	payload := TaskStatusChanged{
		TaskID:       12,
		TaskName:     "Ship release",
		From:         domain.StatusToDo,
		To:           domain.StatusDone,
		RecipientIDs: []int64{3, 4},
		ActorID:      4,
	}

	event, err := NewEvent(TypeTaskStatusChanged, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeTaskStatusChanged, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded TaskStatusChanged
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("broken", map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestNopEmitter(t *testing.T) {
	event, err := NewEvent(TypeTaskAssigned, TaskAssigned{TaskID: 1, AssigneeID: 2})
	require.NoError(t, err)
	assert.NoError(t, NopEmitter{}.EmitEvent(context.Background(), event))
}
