package primary

import (
	"context"
	"time"
)

// APIKeyService defines the primary port for API key management.
type APIKeyService interface {
	// CreateKey issues a key. The plaintext secret is only ever returned here.
	CreateKey(ctx context.Context, scope Scope, req CreateAPIKeyRequest) (*CreatedAPIKey, error)
	ListKeys(ctx context.Context, scope Scope) ([]*APIKey, error)
	UpdateKeyRole(ctx context.Context, scope Scope, keyID, role string) (*APIKey, error)
	DeleteKey(ctx context.Context, scope Scope, keyID string) error
}

// CreateAPIKeyRequest contains parameters for issuing a key.
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// APIKey represents a key at the port boundary. The hash never leaves the store.
type APIKey struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreatedAPIKey is the one-time creation response.
type CreatedAPIKey struct {
	APIKey
	Secret string `json:"secret"`
}
