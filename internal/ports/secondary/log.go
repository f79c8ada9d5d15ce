package secondary

import (
	"context"

	"github.com/example/kanban/internal/ctxutil"
)

// Ticket activity event types.
const (
	ActivityTicketCreated           = "ticket_created"
	ActivityTicketUpdated           = "ticket_updated"
	ActivityTicketStatusChanged     = "ticket_status_changed"
	ActivityTicketAssignmentChanged = "ticket_assignment_changed"
	ActivityTicketCommentAdded      = "ticket_comment_added"
	ActivityTicketDeleted           = "ticket_deleted"
)

// ActivityWriter defines the interface for writing ticket audit entries.
// Implementations resolve the actor: the explicit actor wins, then the
// actor carried by ctx, then the system actor.
type ActivityWriter interface {
	LogTicketActivity(ctx context.Context, workspaceID, ticketID, eventType string, data any, actor *ctxutil.Actor) error
}
