// Package secondary defines the driven ports: persistence, audit and metrics
// interfaces the application core depends on.
package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is wrapped by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence entry point. Reads may use Repos directly;
// every mutation runs inside WithinTx, using only the repos it is handed.
type Store interface {
	// Repos returns repositories bound to the connection pool.
	Repos() Repos

	// WithinTx runs fn in a single write transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error

	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error
}

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Workspaces  WorkspaceRepository
	DocsHistory WorkspaceDocsHistoryRepository
	Members     MembershipRepository
	APIKeys     APIKeyRepository
	Profiles    UserProfileRepository
	Docs        DocRepository
	Tickets     TicketRepository
	Comments    CommentRepository
	Activity    ActivityRepository
	Ledger      ActivityWriter
}

// TicketRepository defines the contract for ticket persistence.
type TicketRepository interface {
	// Create persists a new ticket.
	Create(ctx context.Context, ticket *TicketRecord) error

	// GetByID retrieves a ticket by its ID. Wraps ErrNotFound.
	GetByID(ctx context.Context, id string) (*TicketRecord, error)

	// GetByNumber retrieves a ticket by its workspace-scoped number. Wraps ErrNotFound.
	GetByNumber(ctx context.Context, workspaceID string, number int) (*TicketRecord, error)

	// List retrieves tickets matching the given filters, in sibling order.
	List(ctx context.Context, filters TicketFilters) ([]*TicketRecord, error)

	// Update writes every mutable column of the ticket.
	Update(ctx context.Context, ticket *TicketRecord) error

	// Claim moves an unclaimed ticket to in_progress with the given owner.
	// Returns false when the ticket was not unclaimed at write time.
	Claim(ctx context.Context, id string, owner OwnerRecord, at time.Time) (bool, error)

	// Delete removes a single ticket row.
	Delete(ctx context.Context, id string) error

	// ChildIDs returns the ids of the immediate children of a ticket.
	ChildIDs(ctx context.Context, id string) ([]string, error)

	// ParentID returns the parent of a ticket, or "" for a root ticket.
	ParentID(ctx context.Context, id string) (string, error)

	// LastSiblingOrder returns the highest order among the children of
	// parentID ("" for roots), or nil if there are none.
	LastSiblingOrder(ctx context.Context, workspaceID, parentID string) (*float64, error)

	// AdjustCounters applies deltas to a ticket's child counters.
	AdjustCounters(ctx context.Context, id string, childDelta, doneDelta int) error

	// CountChildren counts live children and done children of a ticket.
	CountChildren(ctx context.Context, id string) (total, done int, err error)

	// SetCounters overwrites a ticket's child counters.
	SetCounters(ctx context.Context, id string, total, done int) error

	// ArchiveByDoc archives every ticket referencing the doc.
	ArchiveByDoc(ctx context.Context, docID string, at time.Time) (int64, error)
}

// TicketRecord represents a ticket as stored in persistence.
type TicketRecord struct {
	ID               string
	WorkspaceID      string
	Number           int
	Title            string
	Description      string
	DocID            string // Empty string means null
	ParentID         string // Empty string means null
	Order            float64
	Archived         bool
	Status           string
	OwnerID          string // Empty string means null
	OwnerType        string // Empty string means null
	OwnerDisplayName string // Empty string means null
	ChildCount       int
	ChildDoneCount   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OwnerRecord is the owner triple written by Claim.
type OwnerRecord struct {
	ID          string
	Type        string
	DisplayName string
}

// ArchivedFilter selects tickets by archived flag.
type ArchivedFilter string

const (
	ArchivedExclude ArchivedFilter = "false"
	ArchivedOnly    ArchivedFilter = "true"
	ArchivedAll     ArchivedFilter = "all"
)

// TicketFilters contains filter options for querying tickets.
type TicketFilters struct {
	WorkspaceID string
	Status      string
	ParentID    string // "" means any parent
	RootOnly    bool
	DocID       string
	OwnerID     string
	Archived    ArchivedFilter
}

// DocRepository defines the contract for feature doc persistence.
type DocRepository interface {
	Create(ctx context.Context, doc *DocRecord) error
	GetByID(ctx context.Context, id string) (*DocRecord, error)
	List(ctx context.Context, filters DocFilters) ([]*DocRecord, error)
	Update(ctx context.Context, doc *DocRecord) error
	Delete(ctx context.Context, id string) error
	ParentID(ctx context.Context, id string) (string, error)
	LastSiblingOrder(ctx context.Context, workspaceID, parentID string) (*float64, error)
}

// DocRecord represents a feature doc as stored in persistence.
type DocRecord struct {
	ID          string
	WorkspaceID string
	Number      int
	Title       string
	Content     string
	Status      string
	Order       float64
	ParentID    string // Empty string means null
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocFilters contains filter options for querying docs.
type DocFilters struct {
	WorkspaceID string
	ParentID    string
	RootOnly    bool
	Archived    ArchivedFilter
}

// CommentRepository defines the contract for ticket comments. Append-only.
type CommentRepository interface {
	Create(ctx context.Context, comment *CommentRecord) error
	ListByTicket(ctx context.Context, ticketID string) ([]*CommentRecord, error)
}

// CommentRecord represents a ticket comment as stored in persistence.
type CommentRecord struct {
	ID          string
	WorkspaceID string
	TicketID    string
	Body        string
	AuthorType  string
	AuthorID    string
	AuthorName  string // Empty string means null
	CreatedAt   time.Time
}

// ActivityRepository defines the contract for the activity ledger. There is
// deliberately no update or delete.
type ActivityRepository interface {
	Create(ctx context.Context, activity *ActivityRecord) error
	// ListByTicket returns newest first; limit <= 0 means no limit.
	ListByTicket(ctx context.Context, ticketID string, limit int) ([]*ActivityRecord, error)
}

// ActivityRecord represents a ticket activity event as stored in persistence.
type ActivityRecord struct {
	ID          string
	WorkspaceID string
	TicketID    string
	Type        string
	ActorType   string
	ActorID     string
	ActorName   string // Empty string means null
	Data        string // JSON, empty string means null
	CreatedAt   time.Time
}
