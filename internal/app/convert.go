package app

import (
	"encoding/json"

	"github.com/example/kanban/internal/core/ticket"
	"github.com/example/kanban/internal/ctxutil"
	"github.com/example/kanban/internal/ports/primary"
	"github.com/example/kanban/internal/ports/secondary"
)

func recordToTicket(r *secondary.TicketRecord, prefix string, summary bool) *primary.Ticket {
	t := &primary.Ticket{
		ID:               r.ID,
		WorkspaceID:      r.WorkspaceID,
		Number:           r.Number,
		Key:              ticket.FormatKey(prefix, r.Number),
		Title:            r.Title,
		DocID:            optional(r.DocID),
		ParentID:         optional(r.ParentID),
		Order:            r.Order,
		Archived:         r.Archived,
		Status:           r.Status,
		OwnerID:          optional(r.OwnerID),
		OwnerType:        optional(r.OwnerType),
		OwnerDisplayName: optional(r.OwnerDisplayName),
		ChildCount:       r.ChildCount,
		ChildDoneCount:   r.ChildDoneCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if !summary {
		desc := r.Description
		t.Description = &desc
	}
	return t
}

func recordToDoc(r *secondary.DocRecord) *primary.Doc {
	return &primary.Doc{
		ID:          r.ID,
		WorkspaceID: r.WorkspaceID,
		Number:      r.Number,
		Title:       r.Title,
		Content:     r.Content,
		Status:      r.Status,
		Order:       r.Order,
		ParentID:    optional(r.ParentID),
		Archived:    r.Archived,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func recordToWorkspace(r *secondary.WorkspaceRecord, role string) *primary.Workspace {
	return &primary.Workspace{
		ID:            r.ID,
		Name:          r.Name,
		Prefix:        r.Prefix,
		TicketCounter: r.TicketCounter,
		DocCounter:    r.DocCounter,
		Role:          role,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func recordToAPIKey(r *secondary.APIKeyRecord) *primary.APIKey {
	return &primary.APIKey{
		ID:          r.ID,
		WorkspaceID: r.WorkspaceID,
		Name:        r.Name,
		Role:        r.Role,
		CreatedAt:   r.CreatedAt,
	}
}

func recordToComment(r *secondary.CommentRecord) *primary.Comment {
	return &primary.Comment{
		ID:        r.ID,
		TicketID:  r.TicketID,
		Body:      r.Body,
		Author:    actorOf(r.AuthorType, r.AuthorID, r.AuthorName),
		CreatedAt: r.CreatedAt,
	}
}

func recordToActivity(r *secondary.ActivityRecord) *primary.Activity {
	a := &primary.Activity{
		ID:        r.ID,
		TicketID:  r.TicketID,
		Type:      r.Type,
		Actor:     actorOf(r.ActorType, r.ActorID, r.ActorName),
		CreatedAt: r.CreatedAt,
	}
	if r.Data != "" {
		a.Data = json.RawMessage(r.Data)
	}
	return a
}

func actorOf(kind, id, name string) ctxutil.Actor {
	return ctxutil.Actor{Type: ctxutil.ActorType(kind), ID: id, DisplayName: name}
}
