package app

import (
	"context"
	"errors"
	"strings"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/core/workspace"
	"github.com/example/kanban/internal/ports/primary"
	"github.com/example/kanban/internal/ports/secondary"
)

// Workspace service messages not owned by the core guards.
const (
	OwnerRequiredMessage  = "ownerUserId is required"
	UserIDRequiredMessage = "userId is required"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// WorkspaceServiceImpl implements the WorkspaceService interface.
type WorkspaceServiceImpl struct {
	store secondary.Store
	env   Env
}

// NewWorkspaceService creates a new WorkspaceService with injected dependencies.
func NewWorkspaceService(store secondary.Store, env Env) *WorkspaceServiceImpl {
	return &WorkspaceServiceImpl{store: store, env: env.withDefaults()}
}

// CreateWorkspace creates a workspace with a derived prefix and an owner membership.
func (s *WorkspaceServiceImpl) CreateWorkspace(ctx context.Context, p primary.Principal, req primary.CreateWorkspaceRequest) (*primary.Workspace, error) {
	var owner string
	switch p.Kind {
	case access.PrincipalSession:
		owner = p.UserID
	case access.PrincipalSystem:
		owner = strings.TrimSpace(req.OwnerUserID)
		if owner == "" {
			return nil, apperr.Validation("%s", OwnerRequiredMessage)
		}
	default:
		return nil, apperr.Forbidden(access.SessionRequiredMessage)
	}

	if guard := workspace.CanCreateWorkspace(workspace.CreateWorkspaceContext{Name: req.Name}); !guard.Allowed {
		return nil, apperr.Validation("%s", guard.Reason)
	}

	now := s.env.Now()
	record := &secondary.WorkspaceRecord{
		ID:        s.env.NewID(),
		Name:      strings.TrimSpace(req.Name),
		Prefix:    workspace.DerivePrefix(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if err := repos.Workspaces.Create(ctx, record); err != nil {
			return storeErr("failed to create workspace", err)
		}
		m := &secondary.MembershipRecord{
			WorkspaceID: record.ID,
			UserID:      owner,
			Role:        access.RoleOwner,
			CreatedAt:   now,
		}
		if err := repos.Members.Create(ctx, m); err != nil {
			return storeErr("failed to create owner membership", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recordToWorkspace(record, access.RoleOwner), nil
}

// ListWorkspaces lists member workspaces for sessions, the home workspace for
// keys and everything for the system.
func (s *WorkspaceServiceImpl) ListWorkspaces(ctx context.Context, p primary.Principal) ([]*primary.Workspace, error) {
	repos := s.store.Repos()

	switch p.Kind {
	case access.PrincipalSession:
		return s.listForUser(ctx, repos, p.UserID)
	case access.PrincipalAPIKey:
		ws, err := repos.Workspaces.GetByID(ctx, p.WorkspaceID)
		if err != nil {
			return nil, storeErr("failed to load workspace", err)
		}
		return []*primary.Workspace{recordToWorkspace(ws, "")}, nil
	case access.PrincipalSystem:
		records, err := repos.Workspaces.List(ctx)
		if err != nil {
			return nil, storeErr("failed to list workspaces", err)
		}
		out := make([]*primary.Workspace, 0, len(records))
		for _, r := range records {
			out = append(out, recordToWorkspace(r, ""))
		}
		return out, nil
	}
	return nil, apperr.Unauthenticated("Unauthorized")
}

func (s *WorkspaceServiceImpl) listForUser(ctx context.Context, repos secondary.Repos, userID string) ([]*primary.Workspace, error) {
	memberships, err := repos.Members.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("failed to list memberships", err)
	}
	roles := make(map[string]string, len(memberships))
	for _, m := range memberships {
		roles[m.WorkspaceID] = m.Role
	}

	records, err := repos.Workspaces.ListForUser(ctx, userID)
	if err != nil {
		return nil, storeErr("failed to list workspaces", err)
	}
	out := make([]*primary.Workspace, 0, len(records))
	for _, r := range records {
		out = append(out, recordToWorkspace(r, roles[r.ID]))
	}
	return out, nil
}

// GetWorkspace returns the workspace with the caller's role.
func (s *WorkspaceServiceImpl) GetWorkspace(ctx context.Context, scope primary.Scope) (*primary.Workspace, error) {
	repos := s.store.Repos()
	role, err := authorize(ctx, repos, scope, access.CapWorkspaceRead)
	if err != nil {
		return nil, err
	}
	ws, err := repos.Workspaces.GetByID(ctx, scope.WorkspaceID)
	if err != nil {
		return nil, storeErr("failed to load workspace", err)
	}
	return recordToWorkspace(ws, role), nil
}

// RenameWorkspace changes the display name. The prefix is fixed at creation.
func (s *WorkspaceServiceImpl) RenameWorkspace(ctx context.Context, scope primary.Scope, name string) (*primary.Workspace, error) {
	if guard := workspace.CanCreateWorkspace(workspace.CreateWorkspaceContext{Name: name}); !guard.Allowed {
		return nil, apperr.Validation("%s", guard.Reason)
	}

	var (
		result *secondary.WorkspaceRecord
		role   string
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		var err error
		role, err = authorize(ctx, repos, scope, access.CapWorkspaceSettings)
		if err != nil {
			return err
		}
		if err := repos.Workspaces.Rename(ctx, scope.WorkspaceID, strings.TrimSpace(name), s.env.Now()); err != nil {
			return storeErr("failed to rename workspace", err)
		}
		result, err = repos.Workspaces.GetByID(ctx, scope.WorkspaceID)
		return storeErr("failed to reload workspace", err)
	})
	if err != nil {
		return nil, err
	}
	return recordToWorkspace(result, role), nil
}

// DeleteWorkspace removes the workspace and everything it owns.
func (s *WorkspaceServiceImpl) DeleteWorkspace(ctx context.Context, scope primary.Scope) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapWorkspaceDelete); err != nil {
			return err
		}
		return storeErr("failed to delete workspace", repos.Workspaces.Delete(ctx, scope.WorkspaceID))
	})
}

// ListMembers lists memberships joined with cached profiles.
func (s *WorkspaceServiceImpl) ListMembers(ctx context.Context, scope primary.Scope) ([]*primary.Member, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWorkspaceRead); err != nil {
		return nil, err
	}

	records, err := repos.Members.ListByWorkspace(ctx, scope.WorkspaceID)
	if err != nil {
		return nil, storeErr("failed to list members", err)
	}

	members := make([]*primary.Member, 0, len(records))
	for _, m := range records {
		member, err := s.toMember(ctx, repos, m)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}

// AddMember invites a user by id.
func (s *WorkspaceServiceImpl) AddMember(ctx context.Context, scope primary.Scope, req primary.AddMemberRequest) (*primary.Member, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, apperr.Validation("%s", UserIDRequiredMessage)
	}
	role := req.Role
	if role == "" {
		role = access.RoleMember
	}

	var member *primary.Member
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		actorRole, err := authorize(ctx, repos, scope, access.CapMembers)
		if err != nil {
			return err
		}

		_, err = repos.Members.Get(ctx, scope.WorkspaceID, userID)
		if err != nil && !errors.Is(err, secondary.ErrNotFound) {
			return apperr.Internal("failed to load membership", err)
		}

		guard := workspace.CanAddMember(workspace.AddMemberContext{
			ActorRole:     actorRole,
			Role:          role,
			AlreadyMember: err == nil,
		})
		if !guard.Allowed {
			return membershipErr(guard.Reason)
		}

		record := &secondary.MembershipRecord{
			WorkspaceID: scope.WorkspaceID,
			UserID:      userID,
			Role:        role,
			CreatedAt:   s.env.Now(),
		}
		if err := repos.Members.Create(ctx, record); err != nil {
			return storeErr("failed to add member", err)
		}
		member, err = s.toMember(ctx, repos, record)
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// UpdateMemberRole changes a member's role, keeping at least one owner.
func (s *WorkspaceServiceImpl) UpdateMemberRole(ctx context.Context, scope primary.Scope, userID, role string) (*primary.Member, error) {
	if role == "" {
		return nil, apperr.Validation("%s", workspace.InvalidRoleMessage)
	}

	var member *primary.Member
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		current, err := s.checkMembershipChange(ctx, repos, scope, userID, role)
		if err != nil {
			return err
		}
		if current.Role == role {
			member, err = s.toMember(ctx, repos, current)
			return err
		}
		if err := repos.Members.UpdateRole(ctx, scope.WorkspaceID, userID, role); err != nil {
			return storeErr("failed to update member role", err)
		}
		current.Role = role
		member, err = s.toMember(ctx, repos, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember removes a membership, keeping at least one owner.
func (s *WorkspaceServiceImpl) RemoveMember(ctx context.Context, scope primary.Scope, userID string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := s.checkMembershipChange(ctx, repos, scope, userID, ""); err != nil {
			return err
		}
		return storeErr("failed to remove member", repos.Members.Delete(ctx, scope.WorkspaceID, userID))
	})
}

// checkMembershipChange authorizes the caller and evaluates the owner rules
// against the live owner count inside the caller's transaction.
func (s *WorkspaceServiceImpl) checkMembershipChange(ctx context.Context, repos secondary.Repos, scope primary.Scope, userID, newRole string) (*secondary.MembershipRecord, error) {
	actorRole, err := authorize(ctx, repos, scope, access.CapMembers)
	if err != nil {
		return nil, err
	}

	current, err := repos.Members.Get(ctx, scope.WorkspaceID, userID)
	if err != nil {
		return nil, storeErr("failed to load membership", err)
	}

	owners, err := repos.Members.CountOwners(ctx, scope.WorkspaceID)
	if err != nil {
		return nil, storeErr("failed to count owners", err)
	}

	guard := workspace.CanChangeMembership(workspace.MembershipChangeContext{
		ActorRole:   actorRole,
		CurrentRole: current.Role,
		NewRole:     newRole,
		OwnerCount:  owners,
	})
	if !guard.Allowed {
		return nil, membershipErr(guard.Reason)
	}
	return current, nil
}

func membershipErr(reason string) error {
	switch reason {
	case workspace.LastOwnerMessage, workspace.AlreadyMemberMessage:
		return apperr.Conflict(reason)
	case workspace.OwnerGrantMessage:
		return apperr.Forbidden(reason)
	}
	return apperr.Validation("%s", reason)
}

func (s *WorkspaceServiceImpl) toMember(ctx context.Context, repos secondary.Repos, m *secondary.MembershipRecord) (*primary.Member, error) {
	member := &primary.Member{UserID: m.UserID, Role: m.Role, CreatedAt: m.CreatedAt}
	profile, err := repos.Profiles.GetByID(ctx, m.UserID)
	switch {
	case err == nil:
		member.Email = profile.Email
		member.DisplayName = profile.DisplayName
	case !errors.Is(err, secondary.ErrNotFound):
		return nil, apperr.Internal("failed to load profile", err)
	}
	return member, nil
}

// GetDocs returns the workspace docs blob.
func (s *WorkspaceServiceImpl) GetDocs(ctx context.Context, scope primary.Scope) (*primary.WorkspaceDocs, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWorkspaceRead); err != nil {
		return nil, err
	}
	ws, err := repos.Workspaces.GetByID(ctx, scope.WorkspaceID)
	if err != nil {
		return nil, storeErr("failed to load workspace", err)
	}
	return &primary.WorkspaceDocs{WorkspaceID: ws.ID, Content: ws.Docs, UpdatedAt: ws.UpdatedAt}, nil
}

// UpdateDocs replaces the docs blob. The superseded content is kept in
// history, attributed to the caller who replaced it.
func (s *WorkspaceServiceImpl) UpdateDocs(ctx context.Context, scope primary.Scope, content string) (*primary.WorkspaceDocs, error) {
	var result *primary.WorkspaceDocs

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapWorkspaceSettings); err != nil {
			return err
		}
		ws, err := repos.Workspaces.GetByID(ctx, scope.WorkspaceID)
		if err != nil {
			return storeErr("failed to load workspace", err)
		}
		if ws.Docs == content {
			result = &primary.WorkspaceDocs{WorkspaceID: ws.ID, Content: ws.Docs, UpdatedAt: ws.UpdatedAt}
			return nil
		}

		now := s.env.Now()
		if ws.Docs != "" {
			actor := scope.Principal.Actor()
			version := &secondary.DocsVersionRecord{
				ID:          s.env.NewID(),
				WorkspaceID: ws.ID,
				Content:     ws.Docs,
				ActorType:   string(actor.Type),
				ActorID:     actor.ID,
				ActorName:   actor.DisplayName,
				CreatedAt:   now,
			}
			if err := repos.DocsHistory.Create(ctx, version); err != nil {
				return storeErr("failed to record docs history", err)
			}
		}

		if err := repos.Workspaces.SetDocs(ctx, ws.ID, content, now); err != nil {
			return storeErr("failed to update docs", err)
		}
		result = &primary.WorkspaceDocs{WorkspaceID: ws.ID, Content: content, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DocsHistory lists superseded docs versions, newest first.
func (s *WorkspaceServiceImpl) DocsHistory(ctx context.Context, scope primary.Scope, limit int) ([]*primary.DocsVersion, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapWorkspaceRead); err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	records, err := repos.DocsHistory.List(ctx, scope.WorkspaceID, limit)
	if err != nil {
		return nil, storeErr("failed to list docs history", err)
	}
	versions := make([]*primary.DocsVersion, 0, len(records))
	for _, r := range records {
		versions = append(versions, &primary.DocsVersion{
			ID:        r.ID,
			Content:   r.Content,
			Actor:     actorOf(r.ActorType, r.ActorID, r.ActorName),
			CreatedAt: r.CreatedAt,
		})
	}
	return versions, nil
}

// Me describes the caller.
func (s *WorkspaceServiceImpl) Me(ctx context.Context, p primary.Principal) (*primary.Me, error) {
	me := &primary.Me{Kind: string(p.Kind)}

	switch p.Kind {
	case access.PrincipalSession:
		me.UserID, me.Email, me.DisplayName = p.UserID, p.Email, p.DisplayName
		profile, err := s.store.Repos().Profiles.GetByID(ctx, p.UserID)
		switch {
		case err == nil:
			me.Email, me.DisplayName, me.AvatarURL = profile.Email, profile.DisplayName, profile.AvatarURL
		case !errors.Is(err, secondary.ErrNotFound):
			return nil, apperr.Internal("failed to load profile", err)
		}
	case access.PrincipalAPIKey:
		me.APIKeyID, me.KeyName, me.KeyRole = p.APIKeyID, p.KeyName, p.KeyRole
	}

	workspaces, err := s.ListWorkspaces(ctx, p)
	if err != nil {
		return nil, err
	}
	me.Workspaces = workspaces
	return me, nil
}

var _ primary.WorkspaceService = (*WorkspaceServiceImpl)(nil)
