package primary

import (
	"context"
	"time"
)

// DocService defines the primary port for feature docs.
type DocService interface {
	CreateDoc(ctx context.Context, scope Scope, req CreateDocRequest) (*Doc, error)
	GetDoc(ctx context.Context, scope Scope, docID string) (*Doc, error)
	ListDocs(ctx context.Context, scope Scope, filters DocFilters) ([]*Doc, error)
	// UpdateDoc applies a partial update; archiving cascades to tickets.
	UpdateDoc(ctx context.Context, scope Scope, docID string, req UpdateDocRequest) (*Doc, error)
	// DeleteDoc ungroups the doc's tickets and re-roots its child docs.
	DeleteDoc(ctx context.Context, scope Scope, docID string) error
}

// CreateDocRequest contains parameters for creating a doc.
type CreateDocRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	ParentID string   `json:"parentId"`
	Order    *float64 `json:"order"`
}

// UpdateDocRequest is a partial update.
type UpdateDocRequest struct {
	Title    *string    `json:"title"`
	Content  *string    `json:"content"`
	Status   *string    `json:"status"`
	ParentID OptionalID `json:"parentId"`
	Archived *bool      `json:"archived"`
	Order    *float64   `json:"order"`
}

// DocFilters contains filter options for listing docs.
type DocFilters struct {
	ParentID string // "root" selects top-level docs
	Archived string
}

// Doc represents a feature doc at the port boundary.
type Doc struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	Order       float64   `json:"order"`
	ParentID    *string   `json:"parentId"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
