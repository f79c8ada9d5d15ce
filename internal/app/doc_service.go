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

// DocServiceImpl implements the DocService interface.
type DocServiceImpl struct {
	store secondary.Store
	env   Env
}

// NewDocService creates a new DocService with injected dependencies.
func NewDocService(store secondary.Store, env Env) *DocServiceImpl {
	return &DocServiceImpl{store: store, env: env.withDefaults()}
}

// CreateDoc creates a feature doc with the next workspace doc number.
func (s *DocServiceImpl) CreateDoc(ctx context.Context, scope primary.Scope, req primary.CreateDocRequest) (*primary.Doc, error) {
	var created *secondary.DocRecord

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
			return err
		}

		parentValid, err := docInWorkspace(ctx, repos, req.ParentID, scope.WorkspaceID)
		if err != nil {
			return err
		}
		guard := doc.CanCreateDoc(doc.CreateDocContext{Title: req.Title, ParentID: req.ParentID, ParentValid: parentValid})
		if !guard.Allowed {
			return apperr.Validation("%s", guard.Reason)
		}

		number, err := repos.Workspaces.NextDocNumber(ctx, scope.WorkspaceID)
		if err != nil {
			return storeErr("failed to allocate doc number", err)
		}

		now := s.env.Now()
		var order float64
		if req.Order != nil {
			order = *req.Order
		} else {
			last, err := repos.Docs.LastSiblingOrder(ctx, scope.WorkspaceID, req.ParentID)
			if err != nil {
				return storeErr("failed to compute order", err)
			}
			order = ticket.NextOrder(last, now.UnixMilli())
		}

		record := &secondary.DocRecord{
			ID:          s.env.NewID(),
			WorkspaceID: scope.WorkspaceID,
			Number:      number,
			Title:       strings.TrimSpace(req.Title),
			Content:     req.Content,
			Status:      string(ticket.InitialStatus()),
			Order:       order,
			ParentID:    req.ParentID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repos.Docs.Create(ctx, record); err != nil {
			return storeErr("failed to create doc", err)
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recordToDoc(created), nil
}

// GetDoc retrieves a doc by id.
func (s *DocServiceImpl) GetDoc(ctx context.Context, scope primary.Scope, docID string) (*primary.Doc, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
		return nil, err
	}
	d, err := loadDoc(ctx, repos, docID, scope.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return recordToDoc(d), nil
}

// ListDocs lists docs with optional filters.
func (s *DocServiceImpl) ListDocs(ctx context.Context, scope primary.Scope, filters primary.DocFilters) ([]*primary.Doc, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
		return nil, err
	}

	archived, err := parseArchivedFilter(filters.Archived)
	if err != nil {
		return nil, err
	}
	query := secondary.DocFilters{WorkspaceID: scope.WorkspaceID, Archived: archived}

	switch filters.ParentID {
	case "":
	case "root":
		query.RootOnly = true
	default:
		if _, err := loadDoc(ctx, repos, filters.ParentID, scope.WorkspaceID); err != nil {
			return nil, err
		}
		query.ParentID = filters.ParentID
	}

	records, err := repos.Docs.List(ctx, query)
	if err != nil {
		return nil, storeErr("failed to list docs", err)
	}
	docs := make([]*primary.Doc, 0, len(records))
	for _, r := range records {
		docs = append(docs, recordToDoc(r))
	}
	return docs, nil
}

// UpdateDoc applies a partial update. Archiving cascades archived=true to
// every ticket grouped under the doc; unarchiving does not cascade.
func (s *DocServiceImpl) UpdateDoc(ctx context.Context, scope primary.Scope, docID string, req primary.UpdateDocRequest) (*primary.Doc, error) {
	var result *secondary.DocRecord

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
			return err
		}
		d, err := loadDoc(ctx, repos, docID, scope.WorkspaceID)
		if err != nil {
			return err
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return apperr.Validation("%s", doc.TitleRequiredMessage)
			}
			d.Title = title
		}
		if req.Content != nil {
			d.Content = *req.Content
		}
		if req.Status != nil {
			status, ok := ticket.ParseStatus(*req.Status)
			if !ok {
				return apperr.Validation("%s", doc.InvalidStatusMessage)
			}
			d.Status = string(status)
		}
		if req.ParentID.Set && req.ParentID.ID != d.ParentID {
			if err := s.reparent(ctx, repos, d, req.ParentID.ID); err != nil {
				return err
			}
		}
		if req.Order != nil {
			d.Order = *req.Order
		}

		now := s.env.Now()
		archiving := req.Archived != nil && *req.Archived && !d.Archived
		if req.Archived != nil {
			d.Archived = *req.Archived
		}

		d.UpdatedAt = now
		if err := repos.Docs.Update(ctx, d); err != nil {
			return storeErr("failed to update doc", err)
		}

		if archiving {
			if _, err := repos.Tickets.ArchiveByDoc(ctx, d.ID, now); err != nil {
				return storeErr("failed to archive doc tickets", err)
			}
		}

		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recordToDoc(result), nil
}

func (s *DocServiceImpl) reparent(ctx context.Context, repos secondary.Repos, d *secondary.DocRecord, newParentID string) error {
	rc := doc.ReparentContext{DocID: d.ID, NewParentID: newParentID}
	if newParentID != "" {
		valid, err := docInWorkspace(ctx, repos, newParentID, d.WorkspaceID)
		if err != nil {
			return err
		}
		rc.ParentValid = valid
		if valid {
			rc.AncestorIDs, rc.Truncated, err = ancestorChain(ctx, newParentID, d.ID, repos.Docs.ParentID)
			if err != nil {
				return err
			}
		}
	}
	if guard := doc.CanReparent(rc); !guard.Allowed {
		return apperr.Validation("%s", guard.Reason)
	}
	d.ParentID = newParentID
	return nil
}

// DeleteDoc deletes a doc. Its tickets lose the grouping and its child docs
// move to the root; neither is deleted.
func (s *DocServiceImpl) DeleteDoc(ctx context.Context, scope primary.Scope, docID string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapWork); err != nil {
			return err
		}
		d, err := loadDoc(ctx, repos, docID, scope.WorkspaceID)
		if err != nil {
			return err
		}
		return storeErr("failed to delete doc", repos.Docs.Delete(ctx, d.ID))
	})
}

func loadDoc(ctx context.Context, repos secondary.Repos, docID, workspaceID string) (*secondary.DocRecord, error) {
	d, err := repos.Docs.GetByID(ctx, docID)
	if err != nil {
		return nil, storeErr("failed to get doc", err)
	}
	if !access.SameWorkspace(d.WorkspaceID, workspaceID) {
		return nil, apperr.NotFound()
	}
	return d, nil
}

func docInWorkspace(ctx context.Context, repos secondary.Repos, id, workspaceID string) (bool, error) {
	if id == "" {
		return false, nil
	}
	d, err := repos.Docs.GetByID(ctx, id)
	if errors.Is(err, secondary.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Internal("failed to load parent doc", err)
	}
	return access.SameWorkspace(d.WorkspaceID, workspaceID), nil
}

var _ primary.DocService = (*DocServiceImpl)(nil)
