package app

import (
	"context"
	"errors"
	"strings"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/core/doc"
	"github.com/example/kanban/internal/core/ticket"
	"github.com/example/kanban/internal/ports/primary"
	"github.com/example/kanban/internal/ports/secondary"
)

// Ticket service messages not owned by the core guards.
const (
	InvalidStatusMessage         = "status must be one of unclaimed, in_progress, done"
	InvalidStatusFilterMessage   = "Invalid status filter"
	InvalidArchivedFilterMessage = "archived must be one of true, false, all"
	CommentBodyRequiredMessage   = "Comment body is required"

	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// Claim metric results.
const (
	claimResultWon      = "won"
	claimResultConflict = "conflict"
)

// TicketServiceImpl implements the TicketService interface.
type TicketServiceImpl struct {
	store              secondary.Store
	env                Env
	logCascadedDeletes bool
}

// NewTicketService creates a new TicketService with injected dependencies.
// logCascadedDeletes controls whether descendants removed by a subtree
// delete get their own ticket_deleted entries.
func NewTicketService(store secondary.Store, env Env, logCascadedDeletes bool) *TicketServiceImpl {
	return &TicketServiceImpl{
		store:              store,
		env:                env.withDefaults(),
		logCascadedDeletes: logCascadedDeletes,
	}
}

// ownerSnapshot is the activity payload shape for owners.
type ownerSnapshot struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"displayName,omitempty"`
}

func snapshotOf(r *secondary.TicketRecord) *ownerSnapshot {
	if r.OwnerID == "" {
		return nil
	}
	return &ownerSnapshot{ID: r.OwnerID, Type: r.OwnerType, DisplayName: r.OwnerDisplayName}
}

func ownerOf(r *secondary.TicketRecord) *ticket.Owner {
	if r.OwnerID == "" {
		return nil
	}
	return &ticket.Owner{ID: r.OwnerID, Type: r.OwnerType, DisplayName: r.OwnerDisplayName}
}

func setOwner(r *secondary.TicketRecord, o *ticket.Owner) {
	if o == nil {
		r.OwnerID, r.OwnerType, r.OwnerDisplayName = "", "", ""
		return
	}
	r.OwnerID, r.OwnerType, r.OwnerDisplayName = o.ID, o.Type, o.DisplayName
}

func doneCount(status string) int {
	if status == string(ticket.StatusDone) {
		return 1
	}
	return 0
}

// CreateTicket creates a new ticket.
func (s *TicketServiceImpl) CreateTicket(ctx context.Context, scope primary.Scope, req primary.CreateTicketRequest) (*primary.Ticket, error) {
	var (
		created *secondary.TicketRecord
		prefix  string
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
			return err
		}

		ws, err := repos.Workspaces.GetByID(ctx, scope.WorkspaceID)
		if err != nil {
			return storeErr("failed to load workspace", err)
		}

		parentValid, err := ticketInWorkspace(ctx, repos, req.ParentID, ws.ID)
		if err != nil {
			return err
		}
		guard := ticket.CanCreateTicket(ticket.CreateTicketContext{
			Title:       req.Title,
			ParentID:    req.ParentID,
			ParentValid: parentValid,
		})
		if !guard.Allowed {
			return apperr.Validation("%s", guard.Reason)
		}

		if err := validateDocRef(ctx, repos, req.DocID, ws.ID); err != nil {
			return err
		}

		number, err := repos.Workspaces.NextTicketNumber(ctx, ws.ID)
		if err != nil {
			return storeErr("failed to allocate ticket number", err)
		}

		now := s.env.Now()
		order, err := s.orderFor(ctx, repos, ws.ID, req.ParentID, req.Order, now.UnixMilli())
		if err != nil {
			return err
		}

		record := &secondary.TicketRecord{
			ID:          s.env.NewID(),
			WorkspaceID: ws.ID,
			Number:      number,
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			DocID:       req.DocID,
			ParentID:    req.ParentID,
			Order:       order,
			Status:      string(ticket.InitialStatus()),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repos.Tickets.Create(ctx, record); err != nil {
			return storeErr("failed to create ticket", err)
		}

		if record.ParentID != "" {
			if err := repos.Tickets.AdjustCounters(ctx, record.ParentID, 1, 0); err != nil {
				return storeErr("failed to update parent counters", err)
			}
		}

		data := map[string]any{"number": number, "title": record.Title}
		if err := s.log(ctx, repos, scope, record.ID, secondary.ActivityTicketCreated, data); err != nil {
			return err
		}

		created, prefix = record, ws.Prefix
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recordToTicket(created, prefix, false), nil
}

// GetTicket retrieves a ticket by id or PREFIX-n key.
func (s *TicketServiceImpl) GetTicket(ctx context.Context, scope primary.Scope, idOrKey string) (*primary.Ticket, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
		return nil, err
	}

	ws, err := repos.Workspaces.GetByID(ctx, scope.WorkspaceID)
	if err != nil {
		return nil, storeErr("failed to load workspace", err)
	}

	var record *secondary.TicketRecord
	if prefix, number, ok := ticket.ParseKey(idOrKey); ok && prefix == ws.Prefix {
		record, err = repos.Tickets.GetByNumber(ctx, ws.ID, number)
		if err != nil {
			return nil, storeErr("failed to get ticket", err)
		}
	} else {
		record, err = loadTicket(ctx, repos, idOrKey, ws.ID)
		if err != nil {
			return nil, err
		}
	}

	return recordToTicket(record, ws.Prefix, false), nil
}

// ListTickets lists tickets with optional filters.
func (s *TicketServiceImpl) ListTickets(ctx context.Context, scope primary.Scope, filters primary.TicketFilters) ([]*primary.Ticket, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
		return nil, err
	}

	ws, err := repos.Workspaces.GetByID(ctx, scope.WorkspaceID)
	if err != nil {
		return nil, storeErr("failed to load workspace", err)
	}

	query := secondary.TicketFilters{
		WorkspaceID: ws.ID,
		DocID:       filters.DocID,
		OwnerID:     filters.OwnerID,
	}

	if filters.Status != "" {
		status, ok := ticket.ParseStatus(filters.Status)
		if !ok {
			return nil, apperr.Validation("%s", InvalidStatusFilterMessage)
		}
		query.Status = string(status)
	}

	archived, err := parseArchivedFilter(filters.Archived)
	if err != nil {
		return nil, err
	}
	query.Archived = archived

	switch filters.ParentID {
	case "":
	case "root":
		query.RootOnly = true
	default:
		if _, err := loadTicket(ctx, repos, filters.ParentID, ws.ID); err != nil {
			return nil, err
		}
		query.ParentID = filters.ParentID
	}

	records, err := repos.Tickets.List(ctx, query)
	if err != nil {
		return nil, storeErr("failed to list tickets", err)
	}

	tickets := make([]*primary.Ticket, 0, len(records))
	for _, r := range records {
		tickets = append(tickets, recordToTicket(r, ws.Prefix, filters.Summary))
	}
	return tickets, nil
}

// UpdateTicket applies a partial update and logs the names of changed fields.
func (s *TicketServiceImpl) UpdateTicket(ctx context.Context, scope primary.Scope, ticketID string, req primary.UpdateTicketRequest) (*primary.Ticket, error) {
	return s.mutate(ctx, scope, ticketID, func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error {
		var changed []string

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return apperr.Validation("%s", ticket.TitleRequiredMessage)
			}
			if title != t.Title {
				t.Title = title
				changed = append(changed, "title")
			}
		}

		if req.Description != nil && *req.Description != t.Description {
			t.Description = *req.Description
			changed = append(changed, "description")
		}

		if req.ParentID.Set && req.ParentID.ID != t.ParentID {
			if err := s.reparent(ctx, repos, t, req.ParentID.ID); err != nil {
				return err
			}
			changed = append(changed, "parentId")
		}

		if req.DocID.Set && req.DocID.ID != t.DocID {
			if err := validateDocRef(ctx, repos, req.DocID.ID, t.WorkspaceID); err != nil {
				return err
			}
			t.DocID = req.DocID.ID
			changed = append(changed, "docId")
		}

		if req.Archived != nil && *req.Archived != t.Archived {
			t.Archived = *req.Archived
			changed = append(changed, "archived")
		}

		if req.Order != nil && *req.Order != t.Order {
			t.Order = *req.Order
			changed = append(changed, "order")
		}

		if len(changed) == 0 {
			return nil
		}

		t.UpdatedAt = s.env.Now()
		if err := repos.Tickets.Update(ctx, t); err != nil {
			return storeErr("failed to update ticket", err)
		}
		return s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketUpdated, map[string]any{"fields": changed})
	})
}

// reparent validates the no-cycle rule against the current tree and moves
// the counters from the old parent to the new one.
func (s *TicketServiceImpl) reparent(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord, newParentID string) error {
	rc := ticket.ReparentContext{TicketID: t.ID, NewParentID: newParentID}

	if newParentID != "" {
		valid, err := ticketInWorkspace(ctx, repos, newParentID, t.WorkspaceID)
		if err != nil {
			return err
		}
		rc.ParentValid = valid
		if valid {
			rc.AncestorIDs, rc.Truncated, err = ancestorChain(ctx, newParentID, t.ID, repos.Tickets.ParentID)
			if err != nil {
				return err
			}
		}
	}

	if guard := ticket.CanReparent(rc); !guard.Allowed {
		return apperr.Validation("%s", guard.Reason)
	}

	done := doneCount(t.Status)
	if t.ParentID != "" {
		if err := repos.Tickets.AdjustCounters(ctx, t.ParentID, -1, -done); err != nil {
			return storeErr("failed to update parent counters", err)
		}
	}
	if newParentID != "" {
		if err := repos.Tickets.AdjustCounters(ctx, newParentID, 1, done); err != nil {
			return storeErr("failed to update parent counters", err)
		}
	}

	t.ParentID = newParentID
	return nil
}

// AssignTicket sets the owner of a claimed ticket.
func (s *TicketServiceImpl) AssignTicket(ctx context.Context, scope primary.Scope, ticketID string, req primary.AssignTicketRequest) (*primary.Ticket, error) {
	return s.mutate(ctx, scope, ticketID, func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error {
		ownerID := strings.TrimSpace(req.OwnerID)
		guard := ticket.CanAssign(ticket.AssignContext{
			Status:    ticket.Status(t.Status),
			OwnerID:   ownerID,
			OwnerType: req.OwnerType,
		})
		if !guard.Allowed {
			if guard.Reason == ticket.AssignUnclaimedMessage {
				return apperr.Conflict(guard.Reason).With("currentStatus", t.Status)
			}
			return apperr.Validation("%s", guard.Reason)
		}

		before := snapshotOf(t)
		setOwner(t, &ticket.Owner{ID: ownerID, Type: req.OwnerType, DisplayName: strings.TrimSpace(req.OwnerDisplayName)})
		after := snapshotOf(t)
		if before != nil && *before == *after {
			return nil
		}

		t.UpdatedAt = s.env.Now()
		if err := repos.Tickets.Update(ctx, t); err != nil {
			return storeErr("failed to assign ticket", err)
		}
		return s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketAssignmentChanged, map[string]any{"from": before, "to": after})
	})
}

// UnassignTicket clears the owner. Unassigning an unowned ticket is a no-op.
func (s *TicketServiceImpl) UnassignTicket(ctx context.Context, scope primary.Scope, ticketID string) (*primary.Ticket, error) {
	return s.mutate(ctx, scope, ticketID, func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error {
		before := snapshotOf(t)
		if before == nil {
			return nil
		}

		setOwner(t, nil)
		t.UpdatedAt = s.env.Now()
		if err := repos.Tickets.Update(ctx, t); err != nil {
			return storeErr("failed to unassign ticket", err)
		}
		return s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketAssignmentChanged, map[string]any{"from": before, "to": nil})
	})
}

// ClaimTicket atomically moves an unclaimed ticket to in_progress. Of any
// number of concurrent claimants exactly one wins; the rest get a conflict
// carrying the current status.
func (s *TicketServiceImpl) ClaimTicket(ctx context.Context, scope primary.Scope, ticketID string, req primary.ClaimTicketRequest) (*primary.Ticket, error) {
	p := scope.Principal
	owner := ticket.Owner{ID: p.OwnerID(), Type: p.OwnerType(), DisplayName: p.Actor().DisplayName}
	if req.OwnerID != "" {
		if !ticket.ValidOwnerType(req.OwnerType) {
			return nil, apperr.Validation("%s", ticket.InvalidOwnerTypeMessage)
		}
		owner = ticket.Owner{ID: strings.TrimSpace(req.OwnerID), Type: req.OwnerType, DisplayName: strings.TrimSpace(req.OwnerDisplayName)}
	}

	var from string
	tk, err := s.mutate(ctx, scope, ticketID, func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error {
		if guard := ticket.CanClaim(ticket.ClaimContext{TicketID: t.ID, Status: ticket.Status(t.Status)}); !guard.Allowed {
			return apperr.Conflict(guard.Reason).With("currentStatus", t.Status)
		}

		now := s.env.Now()
		won, err := repos.Tickets.Claim(ctx, t.ID, secondary.OwnerRecord{ID: owner.ID, Type: owner.Type, DisplayName: owner.DisplayName}, now)
		if err != nil {
			return storeErr("failed to claim ticket", err)
		}
		if !won {
			current, err := repos.Tickets.GetByID(ctx, t.ID)
			if err != nil {
				return storeErr("failed to reload ticket", err)
			}
			return apperr.Conflict(ticket.NotClaimableMessage).With("currentStatus", current.Status)
		}

		from = t.Status
		t.Status = string(ticket.StatusInProgress)
		setOwner(t, &owner)
		t.UpdatedAt = now

		data := map[string]any{
			"from":  from,
			"to":    t.Status,
			"class": string(ticket.Classify(ticket.Status(from), ticket.StatusInProgress)),
		}
		if err := s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketStatusChanged, data); err != nil {
			return err
		}
		return s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketAssignmentChanged, map[string]any{"from": nil, "to": snapshotOf(t)})
	})

	// Counted only once the outcome is committed.
	switch {
	case err == nil:
		s.env.Metrics.Claim(claimResultWon)
		s.recordTransition(from, tk.Status)
	case apperr.Is(err, apperr.KindConflict):
		s.env.Metrics.Claim(claimResultConflict)
	}
	return tk, err
}

// CompleteTicket moves an in_progress ticket to done.
func (s *TicketServiceImpl) CompleteTicket(ctx context.Context, scope primary.Scope, ticketID string) (*primary.Ticket, error) {
	var from string
	tk, err := s.mutate(ctx, scope, ticketID, func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error {
		if guard := ticket.CanComplete(ticket.ClaimContext{TicketID: t.ID, Status: ticket.Status(t.Status)}); !guard.Allowed {
			return apperr.Conflict(guard.Reason).With("currentStatus", t.Status)
		}
		from = t.Status
		return s.transition(ctx, repos, scope, t, ticket.StatusDone, "")
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(from, tk.Status)
	return tk, nil
}

// UpdateTicketStatus applies the transition policy, then moves the ticket to
// the requested status and optional order.
func (s *TicketServiceImpl) UpdateTicketStatus(ctx context.Context, scope primary.Scope, ticketID string, req primary.UpdateStatusRequest) (*primary.Ticket, error) {
	to, ok := ticket.ParseStatus(req.Status)
	if !ok {
		return nil, apperr.Validation("%s", InvalidStatusMessage)
	}

	var moved string
	tk, err := s.mutate(ctx, scope, ticketID, func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error {
		from := ticket.Status(t.Status)
		guard := ticket.ValidateForActor(ticket.TransitionContext{
			From:          from,
			To:            to,
			IsAgentCaller: scope.Principal.IsAgent(),
			Reason:        req.Reason,
		})
		if !guard.Allowed {
			return apperr.Validation("%s", guard.Reason).With("currentStatus", t.Status)
		}

		if req.Order != nil && *req.Order != t.Order {
			t.Order = *req.Order
			if from == to {
				t.UpdatedAt = s.env.Now()
				if err := repos.Tickets.Update(ctx, t); err != nil {
					return storeErr("failed to move ticket", err)
				}
				return s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketUpdated, map[string]any{"fields": []string{"order"}})
			}
		}

		if from == to {
			return nil
		}
		moved = string(from)
		return s.transition(ctx, repos, scope, t, to, ticket.NormalizeReason(req.Reason))
	})
	if err != nil {
		return nil, err
	}
	if moved != "" {
		s.recordTransition(moved, tk.Status)
	}
	return tk, nil
}

// transition writes a status change. Status and owner go out in one row
// update; the parent's done counter follows in the same transaction.
func (s *TicketServiceImpl) transition(ctx context.Context, repos secondary.Repos, scope primary.Scope, t *secondary.TicketRecord, to ticket.Status, reason string) error {
	from := ticket.Status(t.Status)
	result := ticket.ApplyStatusTransition(from, to, ownerOf(t), nil)

	before := snapshotOf(t)
	t.Status = string(result.NewStatus)
	setOwner(t, result.Owner)
	t.UpdatedAt = s.env.Now()

	if err := repos.Tickets.Update(ctx, t); err != nil {
		return storeErr("failed to update ticket status", err)
	}

	if t.ParentID != "" && result.DoneDelta != 0 {
		if err := repos.Tickets.AdjustCounters(ctx, t.ParentID, 0, result.DoneDelta); err != nil {
			return storeErr("failed to update parent counters", err)
		}
	}

	data := map[string]any{
		"from":  string(from),
		"to":    t.Status,
		"class": string(ticket.Classify(from, to)),
	}
	if reason != "" {
		data["reason"] = reason
	}
	if err := s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketStatusChanged, data); err != nil {
		return err
	}

	if before != nil && result.Owner == nil {
		return s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketAssignmentChanged, map[string]any{"from": before, "to": nil})
	}
	return nil
}

// recordTransition counts a committed status change. Callers invoke it only
// after the transaction that wrote the change has succeeded.
func (s *TicketServiceImpl) recordTransition(from, to string) {
	s.env.Metrics.StatusTransition(from, to, string(ticket.Classify(ticket.Status(from), ticket.Status(to))))
}

// DeleteTicket deletes a ticket and its whole subtree, children first.
func (s *TicketServiceImpl) DeleteTicket(ctx context.Context, scope primary.Scope, ticketID string) (*primary.DeleteTicketResult, error) {
	var deleted []string

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
			return err
		}

		root, err := loadTicket(ctx, repos, ticketID, scope.WorkspaceID)
		if err != nil {
			return err
		}

		ids, err := collectSubtree(ctx, repos, root.ID)
		if err != nil {
			return err
		}

		for i := len(ids) - 1; i >= 0; i-- {
			if err := repos.Tickets.Delete(ctx, ids[i]); err != nil {
				return storeErr("failed to delete ticket", err)
			}
		}

		if root.ParentID != "" {
			if err := repos.Tickets.AdjustCounters(ctx, root.ParentID, -1, -doneCount(root.Status)); err != nil {
				return storeErr("failed to update parent counters", err)
			}
		}

		data := map[string]any{"number": root.Number, "title": root.Title, "descendants": len(ids) - 1}
		if err := s.log(ctx, repos, scope, root.ID, secondary.ActivityTicketDeleted, data); err != nil {
			return err
		}
		if s.logCascadedDeletes {
			for _, id := range ids[1:] {
				if err := s.log(ctx, repos, scope, id, secondary.ActivityTicketDeleted, map[string]any{"cascadedFrom": root.ID}); err != nil {
					return err
				}
			}
		}

		deleted = ids
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &primary.DeleteTicketResult{DeletedIDs: deleted}, nil
}

// collectSubtree walks the tree with an explicit stack and returns the root
// followed by every descendant, parents before children.
func collectSubtree(ctx context.Context, repos secondary.Repos, rootID string) ([]string, error) {
	var (
		ids     []string
		stack   = []string{rootID}
		visited = map[string]bool{}
	)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		ids = append(ids, id)

		children, err := repos.Tickets.ChildIDs(ctx, id)
		if err != nil {
			return nil, storeErr("failed to list child tickets", err)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return ids, nil
}

// ReconcileTicket recomputes child counters from live children.
func (s *TicketServiceImpl) ReconcileTicket(ctx context.Context, scope primary.Scope, ticketID string) (*primary.Ticket, error) {
	return s.mutate(ctx, scope, ticketID, func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error {
		total, done, err := repos.Tickets.CountChildren(ctx, t.ID)
		if err != nil {
			return storeErr("failed to count children", err)
		}
		if total == t.ChildCount && done == t.ChildDoneCount {
			return nil
		}
		if err := repos.Tickets.SetCounters(ctx, t.ID, total, done); err != nil {
			return storeErr("failed to reconcile counters", err)
		}
		t.ChildCount, t.ChildDoneCount = total, done
		return nil
	})
}

// AddComment appends a comment attributed to the caller.
func (s *TicketServiceImpl) AddComment(ctx context.Context, scope primary.Scope, ticketID, body string) (*primary.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validation("%s", CommentBodyRequiredMessage)
	}

	var created *secondary.CommentRecord
	_, err := s.mutate(ctx, scope, ticketID, func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error {
		author := scope.Principal.Actor()
		record := &secondary.CommentRecord{
			ID:          s.env.NewID(),
			WorkspaceID: t.WorkspaceID,
			TicketID:    t.ID,
			Body:        body,
			AuthorType:  string(author.Type),
			AuthorID:    author.ID,
			AuthorName:  author.DisplayName,
			CreatedAt:   s.env.Now(),
		}
		if err := repos.Comments.Create(ctx, record); err != nil {
			return storeErr("failed to add comment", err)
		}
		created = record
		return s.log(ctx, repos, scope, t.ID, secondary.ActivityTicketCommentAdded, map[string]any{"commentId": record.ID})
	})
	if err != nil {
		return nil, err
	}
	return recordToComment(created), nil
}

// ListComments lists a ticket's comments oldest first.
func (s *TicketServiceImpl) ListComments(ctx context.Context, scope primary.Scope, ticketID string) ([]*primary.Comment, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
		return nil, err
	}
	if _, err := loadTicket(ctx, repos, ticketID, scope.WorkspaceID); err != nil {
		return nil, err
	}

	records, err := repos.Comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeErr("failed to list comments", err)
	}
	comments := make([]*primary.Comment, 0, len(records))
	for _, r := range records {
		comments = append(comments, recordToComment(r))
	}
	return comments, nil
}

// ListActivity lists a ticket's activity newest first.
func (s *TicketServiceImpl) ListActivity(ctx context.Context, scope primary.Scope, ticketID string, limit int) ([]*primary.Activity, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
		return nil, err
	}
	if _, err := loadTicket(ctx, repos, ticketID, scope.WorkspaceID); err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}

	records, err := repos.Activity.ListByTicket(ctx, ticketID, limit)
	if err != nil {
		return nil, storeErr("failed to list activity", err)
	}
	events := make([]*primary.Activity, 0, len(records))
	for _, r := range records {
		events = append(events, recordToActivity(r))
	}
	return events, nil
}

// mutate runs fn on a freshly loaded ticket inside one transaction and
// returns the ticket as fn left it.
func (s *TicketServiceImpl) mutate(
	ctx context.Context,
	scope primary.Scope,
	ticketID string,
	fn func(ctx context.Context, repos secondary.Repos, t *secondary.TicketRecord) error,
) (*primary.Ticket, error) {
	var (
		result *secondary.TicketRecord
		prefix string
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
			return err
		}
		ws, err := repos.Workspaces.GetByID(ctx, scope.WorkspaceID)
		if err != nil {
			return storeErr("failed to load workspace", err)
		}
		t, err := loadTicket(ctx, repos, ticketID, ws.ID)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, t); err != nil {
			return err
		}
		result, prefix = t, ws.Prefix
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recordToTicket(result, prefix, false), nil
}

func (s *TicketServiceImpl) log(ctx context.Context, repos secondary.Repos, scope primary.Scope, ticketID, eventType string, data any) error {
	actor := scope.Principal.Actor()
	if err := repos.Ledger.LogTicketActivity(ctx, scope.WorkspaceID, ticketID, eventType, data, &actor); err != nil {
		return storeErr("failed to record activity", err)
	}
	return nil
}

func (s *TicketServiceImpl) orderFor(ctx context.Context, repos secondary.Repos, workspaceID, parentID string, explicit *float64, createdAtMillis int64) (float64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	last, err := repos.Tickets.LastSiblingOrder(ctx, workspaceID, parentID)
	if err != nil {
		return 0, storeErr("failed to compute order", err)
	}
	return ticket.NextOrder(last, createdAtMillis), nil
}

// loadTicket fetches a ticket and hides tickets of other workspaces.
func loadTicket(ctx context.Context, repos secondary.Repos, ticketID, workspaceID string) (*secondary.TicketRecord, error) {
	t, err := repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeErr("failed to get ticket", err)
	}
	if !access.SameWorkspace(t.WorkspaceID, workspaceID) {
		return nil, apperr.NotFound()
	}
	return t, nil
}

// ticketInWorkspace reports whether id names a ticket of the workspace.
// An empty id is vacuously false.
func ticketInWorkspace(ctx context.Context, repos secondary.Repos, id, workspaceID string) (bool, error) {
	if id == "" {
		return false, nil
	}
	t, err := repos.Tickets.GetByID(ctx, id)
	if errors.Is(err, secondary.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Internal("failed to load parent ticket", err)
	}
	return access.SameWorkspace(t.WorkspaceID, workspaceID), nil
}

// ancestorChain walks up from startID, startID first, stopping early when it
// meets stopAt. truncated reports that the walk hit the depth cap.
func ancestorChain(ctx context.Context, startID, stopAt string, parentOf func(context.Context, string) (string, error)) ([]string, bool, error) {
	var ancestors []string
	current := startID
	for current != "" {
		if len(ancestors) >= ticket.MaxTreeDepth {
			return ancestors, true, nil
		}
		ancestors = append(ancestors, current)
		if current == stopAt {
			return ancestors, false, nil
		}
		next, err := parentOf(ctx, current)
		if err != nil {
			return nil, false, storeErr("failed to walk ancestors", err)
		}
		current = next
	}
	return ancestors, false, nil
}

func validateDocRef(ctx context.Context, repos secondary.Repos, docID, workspaceID string) error {
	if docID == "" {
		return nil
	}
	d, err := repos.Docs.GetByID(ctx, docID)
	if errors.Is(err, secondary.ErrNotFound) || (err == nil && !access.SameWorkspace(d.WorkspaceID, workspaceID)) {
		return apperr.Validation("%s", doc.InvalidDocMessage)
	}
	if err != nil {
		return apperr.Internal("failed to load doc", err)
	}
	return nil
}

func parseArchivedFilter(raw string) (secondary.ArchivedFilter, error) {
	switch raw {
	case "", "false":
		return secondary.ArchivedExclude, nil
	case "true":
		return secondary.ArchivedOnly, nil
	case "all":
		return secondary.ArchivedAll, nil
	}
	return "", apperr.Validation("%s", InvalidArchivedFilterMessage)
}

var _ primary.TicketService = (*TicketServiceImpl)(nil)
