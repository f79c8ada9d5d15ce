package primary

import (
	"context"
	"time"

	"github.com/example/kanban/internal/ctxutil"
)

// WorkspaceService defines the primary port for workspaces, memberships and
// the workspace docs blob.
type WorkspaceService interface {
	// CreateWorkspace creates a workspace owned by the calling user, or by
	// req.OwnerUserID when the caller is the system.
	CreateWorkspace(ctx context.Context, p Principal, req CreateWorkspaceRequest) (*Workspace, error)

	// ListWorkspaces lists the workspaces visible to the principal.
	ListWorkspaces(ctx context.Context, p Principal) ([]*Workspace, error)

	GetWorkspace(ctx context.Context, scope Scope) (*Workspace, error)
	RenameWorkspace(ctx context.Context, scope Scope, name string) (*Workspace, error)
	DeleteWorkspace(ctx context.Context, scope Scope) error

	ListMembers(ctx context.Context, scope Scope) ([]*Member, error)
	AddMember(ctx context.Context, scope Scope, req AddMemberRequest) (*Member, error)
	UpdateMemberRole(ctx context.Context, scope Scope, userID, role string) (*Member, error)
	RemoveMember(ctx context.Context, scope Scope, userID string) error

	GetDocs(ctx context.Context, scope Scope) (*WorkspaceDocs, error)
	// UpdateDocs replaces the blob and keeps the previous content in history.
	UpdateDocs(ctx context.Context, scope Scope, content string) (*WorkspaceDocs, error)
	DocsHistory(ctx context.Context, scope Scope, limit int) ([]*DocsVersion, error)

	// Me returns the caller's cached profile and memberships.
	Me(ctx context.Context, p Principal) (*Me, error)
}

// CreateWorkspaceRequest contains parameters for creating a workspace.
type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	OwnerUserID string `json:"-"`
}

// AddMemberRequest contains parameters for inviting a user.
type AddMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Workspace represents a workspace at the port boundary.
type Workspace struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Prefix        string    `json:"prefix"`
	TicketCounter int       `json:"ticketCounter"`
	DocCounter    int       `json:"docCounter"`
	Role          string    `json:"role,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Member represents a membership at the port boundary.
type Member struct {
	UserID      string    `json:"userId"`
	Role        string    `json:"role"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// WorkspaceDocs is the current docs blob.
type WorkspaceDocs struct {
	WorkspaceID string    `json:"workspaceId"`
	Content     string    `json:"content"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DocsVersion is a superseded docs blob.
type DocsVersion struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Actor     ctxutil.Actor `json:"actor"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Me is the caller's profile.
type Me struct {
	Kind        string       `json:"kind"`
	UserID      string       `json:"userId,omitempty"`
	Email       string       `json:"email,omitempty"`
	DisplayName string       `json:"displayName,omitempty"`
	AvatarURL   string       `json:"avatarUrl,omitempty"`
	APIKeyID    string       `json:"apiKeyId,omitempty"`
	KeyName     string       `json:"keyName,omitempty"`
	KeyRole     string       `json:"keyRole,omitempty"`
	Workspaces  []*Workspace `json:"workspaces"`
}
