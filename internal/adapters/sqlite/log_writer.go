package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/kanban/internal/ctxutil"
	"github.com/example/kanban/internal/ports/secondary"
)

// ActivityWriterAdapter implements secondary.ActivityWriter on top of an
// ActivityRepository.
type ActivityWriterAdapter struct {
	activityRepo secondary.ActivityRepository
	now          func() time.Time
}

// NewActivityWriterAdapter creates a new ActivityWriterAdapter.
func NewActivityWriterAdapter(activityRepo secondary.ActivityRepository, now func() time.Time) *ActivityWriterAdapter {
	if now == nil {
		now = time.Now
	}
	return &ActivityWriterAdapter{activityRepo: activityRepo, now: now}
}

// LogTicketActivity appends one immutable activity record.
func (w *ActivityWriterAdapter) LogTicketActivity(ctx context.Context, workspaceID, ticketID, eventType string, data any, actor *ctxutil.Actor) error {
	resolved := resolveActor(ctx, actor)

	var payload string
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode activity data: %w", err)
		}
		payload = string(encoded)
	}

	record := &secondary.ActivityRecord{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		TicketID:    ticketID,
		Type:        eventType,
		ActorType:   string(resolved.Type),
		ActorID:     resolved.ID,
		ActorName:   resolved.DisplayName,
		Data:        payload,
		CreatedAt:   w.now(),
	}

	return w.activityRepo.Create(ctx, record)
}

// resolveActor picks the explicit actor, then the ambient one, then system.
func resolveActor(ctx context.Context, explicit *ctxutil.Actor) ctxutil.Actor {
	if explicit != nil && !explicit.IsZero() {
		return *explicit
	}
	if actor, ok := ctxutil.ActorFromContext(ctx); ok {
		return actor
	}
	return ctxutil.SystemActor()
}

var _ secondary.ActivityWriter = (*ActivityWriterAdapter)(nil)
