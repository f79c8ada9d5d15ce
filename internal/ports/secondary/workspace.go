package secondary

import (
	"context"
	"time"
)

// WorkspaceRepository defines the contract for workspace persistence.
type WorkspaceRepository interface {
	Create(ctx context.Context, ws *WorkspaceRecord) error
	GetByID(ctx context.Context, id string) (*WorkspaceRecord, error)
	// List returns every workspace. Used by operator tooling.
	List(ctx context.Context) ([]*WorkspaceRecord, error)
	// ListForUser returns the workspaces the user is a member of.
	ListForUser(ctx context.Context, userID string) ([]*WorkspaceRecord, error)
	Rename(ctx context.Context, id, name string, at time.Time) error
	SetDocs(ctx context.Context, id, docs string, at time.Time) error
	// Delete removes the workspace; owned rows go with it.
	Delete(ctx context.Context, id string) error

	// NextTicketNumber increments and returns the ticket counter in one statement.
	NextTicketNumber(ctx context.Context, id string) (int, error)
	// NextDocNumber increments and returns the doc counter in one statement.
	NextDocNumber(ctx context.Context, id string) (int, error)
}

// WorkspaceRecord represents a workspace as stored in persistence.
type WorkspaceRecord struct {
	ID            string
	Name          string
	Prefix        string
	Docs          string
	TicketCounter int
	DocCounter    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WorkspaceDocsHistoryRepository stores previous versions of the docs blob.
type WorkspaceDocsHistoryRepository interface {
	Create(ctx context.Context, version *DocsVersionRecord) error
	// List returns newest first; limit <= 0 means no limit.
	List(ctx context.Context, workspaceID string, limit int) ([]*DocsVersionRecord, error)
}

// DocsVersionRecord is one superseded version of a workspace docs blob.
type DocsVersionRecord struct {
	ID          string
	WorkspaceID string
	Content     string
	ActorType   string
	ActorID     string
	ActorName   string
	CreatedAt   time.Time
}

// MembershipRepository defines the contract for membership persistence.
type MembershipRepository interface {
	Create(ctx context.Context, m *MembershipRecord) error
	// Get wraps ErrNotFound when the user is not a member.
	Get(ctx context.Context, workspaceID, userID string) (*MembershipRecord, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*MembershipRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*MembershipRecord, error)
	UpdateRole(ctx context.Context, workspaceID, userID, role string) error
	Delete(ctx context.Context, workspaceID, userID string) error
	CountOwners(ctx context.Context, workspaceID string) (int, error)
}

// MembershipRecord represents a membership as stored in persistence.
type MembershipRecord struct {
	WorkspaceID string
	UserID      string
	Role        string
	CreatedAt   time.Time
}

// APIKeyRepository defines the contract for API key persistence.
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKeyRecord) error
	GetByID(ctx context.Context, id string) (*APIKeyRecord, error)
	// GetByHash looks a key up by the SHA-256 of its secret.
	GetByHash(ctx context.Context, hash string) (*APIKeyRecord, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*APIKeyRecord, error)
	UpdateRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
}

// APIKeyRecord represents an API key as stored in persistence.
type APIKeyRecord struct {
	ID          string
	WorkspaceID string
	Name        string
	KeyHash     string
	Role        string
	CreatedAt   time.Time
}

// UserProfileRepository caches upstream identities.
type UserProfileRepository interface {
	Upsert(ctx context.Context, profile *UserProfileRecord) error
	GetByID(ctx context.Context, id string) (*UserProfileRecord, error)
}

// UserProfileRecord represents a cached user profile.
type UserProfileRecord struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   string
	UpdatedAt   time.Time
}
