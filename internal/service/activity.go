package service

import (
	"context"
	"encoding/json"
	"time"

	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/observability"
)

// ActivityPublisher pushes a payload onto a user's realtime channel.
type ActivityPublisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// activity records the domain event and, when a publisher is configured,
// fans it out to recipients. Delivery failures are logged and dropped.
type activity struct {
	publisher ActivityPublisher
}

func (a activity) enabled() bool {
	return a.publisher != nil
}

func (a activity) emit(ctx context.Context, event models.ActivityEvent, recipients ...uint) {
	observability.RecordEvent(event.Type)
	if a.publisher == nil || len(recipients) == 0 {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "marshal activity event", "event", event.Type, "error", err)
		return
	}
	for _, id := range recipients {
		if err := a.publisher.PublishUser(ctx, id, string(payload)); err != nil {
			middleware.Logger.WarnContext(ctx, "publish activity event",
				"event", event.Type, "recipient", id, "error", err)
		}
	}
}
