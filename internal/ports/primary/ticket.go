package primary

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/kanban/internal/ctxutil"
)

// TicketService defines the primary port for the ticket lifecycle.
type TicketService interface {
	// CreateTicket creates an unclaimed ticket with the next workspace number.
	CreateTicket(ctx context.Context, scope Scope, req CreateTicketRequest) (*Ticket, error)

	// GetTicket retrieves a ticket by id or by its PREFIX-n key.
	GetTicket(ctx context.Context, scope Scope, idOrKey string) (*Ticket, error)

	// ListTickets lists tickets with optional filters.
	ListTickets(ctx context.Context, scope Scope, filters TicketFilters) ([]*Ticket, error)

	// UpdateTicket applies a partial update.
	UpdateTicket(ctx context.Context, scope Scope, ticketID string, req UpdateTicketRequest) (*Ticket, error)

	// AssignTicket sets the owner without changing status.
	AssignTicket(ctx context.Context, scope Scope, ticketID string, req AssignTicketRequest) (*Ticket, error)

	// UnassignTicket clears the owner. Idempotent.
	UnassignTicket(ctx context.Context, scope Scope, ticketID string) (*Ticket, error)

	// ClaimTicket atomically moves an unclaimed ticket to in_progress.
	ClaimTicket(ctx context.Context, scope Scope, ticketID string, req ClaimTicketRequest) (*Ticket, error)

	// CompleteTicket moves an in_progress ticket to done.
	CompleteTicket(ctx context.Context, scope Scope, ticketID string) (*Ticket, error)

	// UpdateTicketStatus changes status and optionally order, applying the
	// transition policy.
	UpdateTicketStatus(ctx context.Context, scope Scope, ticketID string, req UpdateStatusRequest) (*Ticket, error)

	// DeleteTicket deletes a ticket and its whole subtree.
	DeleteTicket(ctx context.Context, scope Scope, ticketID string) (*DeleteTicketResult, error)

	// ReconcileTicket recomputes child counters from live children.
	ReconcileTicket(ctx context.Context, scope Scope, ticketID string) (*Ticket, error)

	AddComment(ctx context.Context, scope Scope, ticketID, body string) (*Comment, error)
	ListComments(ctx context.Context, scope Scope, ticketID string) ([]*Comment, error)

	// ListActivity returns the audit trail newest first.
	ListActivity(ctx context.Context, scope Scope, ticketID string, limit int) ([]*Activity, error)
}

// CreateTicketRequest contains parameters for creating a ticket.
type CreateTicketRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ParentID    string   `json:"parentId"` // Optional
	DocID       string   `json:"docId"`    // Optional
	Order       *float64 `json:"order"`    // Optional
}

// UpdateTicketRequest is a partial update; nil or unset fields are untouched.
type UpdateTicketRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ParentID    OptionalID `json:"parentId"`
	DocID       OptionalID `json:"docId"`
	Archived    *bool      `json:"archived"`
	Order       *float64   `json:"order"`
}

// AssignTicketRequest contains parameters for assigning an owner.
type AssignTicketRequest struct {
	OwnerID          string `json:"ownerId"`
	OwnerType        string `json:"ownerType"`
	OwnerDisplayName string `json:"ownerDisplayName"`
}

// ClaimTicketRequest optionally names the owner; by default the caller claims.
type ClaimTicketRequest struct {
	OwnerID          string `json:"ownerId"`
	OwnerType        string `json:"ownerType"`
	OwnerDisplayName string `json:"ownerDisplayName"`
}

// UpdateStatusRequest contains parameters for a status or board move.
type UpdateStatusRequest struct {
	Status string   `json:"status"`
	Order  *float64 `json:"order"`
	Reason string   `json:"reason"`
}

// TicketFilters contains filter options for listing tickets.
type TicketFilters struct {
	Status   string
	ParentID string // "root" selects top-level tickets
	DocID    string
	OwnerID  string
	Archived string // "true", "false" (default) or "all"
	Summary  bool   // omit descriptions
}

// Ticket represents a ticket at the port boundary. Nullable fields are
// pointers so that absent values serialize as null.
type Ticket struct {
	ID               string    `json:"id"`
	WorkspaceID      string    `json:"workspaceId"`
	Number           int       `json:"number"`
	Key              string    `json:"key"`
	Title            string    `json:"title"`
	Description      *string   `json:"description,omitempty"`
	DocID            *string   `json:"docId"`
	ParentID         *string   `json:"parentId"`
	Order            float64   `json:"order"`
	Archived         bool      `json:"archived"`
	Status           string    `json:"status"`
	OwnerID          *string   `json:"ownerId"`
	OwnerType        *string   `json:"ownerType"`
	OwnerDisplayName *string   `json:"ownerDisplayName"`
	ChildCount       int       `json:"childCount"`
	ChildDoneCount   int       `json:"childDoneCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DeleteTicketResult lists every removed ticket, root first.
type DeleteTicketResult struct {
	DeletedIDs []string `json:"deletedIds"`
}

// Comment represents a ticket comment at the port boundary.
type Comment struct {
	ID        string        `json:"id"`
	TicketID  string        `json:"ticketId"`
	Body      string        `json:"body"`
	Author    ctxutil.Actor `json:"author"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Activity represents an audit event at the port boundary.
type Activity struct {
	ID        string          `json:"id"`
	TicketID  string          `json:"ticketId"`
	Type      string          `json:"type"`
	Actor     ctxutil.Actor   `json:"actor"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
