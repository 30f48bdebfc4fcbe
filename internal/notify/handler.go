package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/events"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
)

// UserLookup resolves notification recipients.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Enqueuer accepts messages for asynchronous delivery.
type Enqueuer interface {
	Enqueue(msg Message) error
}

// Handler turns task events into queued messages. It implements
// events.EventHandler and only reports malformed events as errors.
type Handler struct {
	users  UserLookup
	queue  Enqueuer
	logger *slog.Logger
}

var _ events.EventHandler = (*Handler)(nil)

// NewHandler creates a Handler.
func NewHandler(users UserLookup, queue Enqueuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		users:  users,
		queue:  queue,
		logger: logger.With(slog.String("component", "notify_handler")),
	}
}

// HandleEvent implements events.EventHandler.
func (h *Handler) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.TypeTaskAssigned:
		var p events.TaskAssigned
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("invalid %s payload: %w", event.Type, err)
		}
		h.notify(ctx, []int64{p.AssigneeID}, p.ActorID,
			fmt.Sprintf("[takeatask] Task #%d assigned to you", p.TaskID),
			fmt.Sprintf("You are now the assignee of task #%d \"%s\".\n", p.TaskID, p.TaskName))
	case events.TypeTaskStatusChanged:
		var p events.TaskStatusChanged
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("invalid %s payload: %w", event.Type, err)
		}
		h.notify(ctx, p.RecipientIDs, p.ActorID,
			fmt.Sprintf("[takeatask] Task #%d is now %s", p.TaskID, p.To),
			fmt.Sprintf("Task #%d \"%s\" moved from %s to %s.\n", p.TaskID, p.TaskName, p.From, p.To))
	default:
		logger.FromContextOrDefault(ctx, h.logger).Debug("ignoring event", slog.String("event_type", event.Type))
	}
	return nil
}

// notify queues one message per distinct recipient, skipping the actor and
// anyone without a usable address.
func (h *Handler) notify(ctx context.Context, recipients []int64, actorID int64, subject, body string) {
	log := logger.FromContextOrDefault(ctx, h.logger)

	seen := make(map[int64]struct{}, len(recipients))
	for _, id := range recipients {
		if id <= 0 || id == actorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		u, err := h.users.GetByID(ctx, id)
		if err != nil {
			log.Warn("notification recipient lookup failed",
				slog.String("error", err.Error()), slog.Int64("user_id", id))
			continue
		}
		to := Address(u)
		if to == "" {
			log.Debug("recipient has no email address", slog.Int64("user_id", id))
			continue
		}

		err = h.queue.Enqueue(Message{To: to, Subject: subject, Body: body})
		switch {
		case errors.Is(err, ErrQueueFull):
			log.Warn("notification dropped, queue full", slog.Int64("user_id", id))
		case err != nil:
			log.Warn("notification not queued", slog.String("error", err.Error()), slog.Int64("user_id", id))
		}
	}
}

// Address returns where u is mailed: the email when it is email-shaped,
// else the login when that is, else "".
func Address(u *domain.User) string {
	if u == nil || !u.Active {
		return ""
	}
	if domain.IsEmailShaped(u.Email) {
		return u.Email
	}
	if domain.IsEmailShaped(u.Login) {
		return u.Login
	}
	return ""
}
