package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/takeatask-api/internal/domain"
)

// Event types published by the task service.
const (
	TypeTaskAssigned      = "task.assigned"
	TypeTaskStatusChanged = "task.status_changed"
)

// Event is a domain event with a JSON payload.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of eventType carrying payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// TaskAssigned is the payload of TypeTaskAssigned.
type TaskAssigned struct {
	TaskID     int64  `json:"task_id"`
	TaskName   string `json:"task_name"`
	AssigneeID int64  `json:"assignee_id"`
	ActorID    int64  `json:"actor_id"`
}

// TaskStatusChanged is the payload of TypeTaskStatusChanged.
type TaskStatusChanged struct {
	TaskID       int64             `json:"task_id"`
	TaskName     string            `json:"task_name"`
	From         domain.TaskStatus `json:"from"`
	To           domain.TaskStatus `json:"to"`
	RecipientIDs []int64           `json:"recipient_ids"`
	ActorID      int64             `json:"actor_id"`
}

// EventHandler reacts to published events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter publishes events to the registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *Event) error { return nil }
