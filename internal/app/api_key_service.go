package app

import (
	"context"
	"strings"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/core/apikey"
	"github.com/example/kanban/internal/ports/primary"
	"github.com/example/kanban/internal/ports/secondary"
)

// APIKeyServiceImpl implements the APIKeyService interface.
type APIKeyServiceImpl struct {
	store     secondary.Store
	env       Env
	newSecret func() (string, error)
}

// NewAPIKeyService creates a new APIKeyService with injected dependencies.
func NewAPIKeyService(store secondary.Store, env Env) *APIKeyServiceImpl {
	return &APIKeyServiceImpl{
		store:     store,
		env:       env.withDefaults(),
		newSecret: apikey.GenerateSecret,
	}
}

// CreateKey issues a key and returns the plaintext secret once. Only the
// SHA-256 of the secret is stored.
func (s *APIKeyServiceImpl) CreateKey(ctx context.Context, scope primary.Scope, req primary.CreateAPIKeyRequest) (*primary.CreatedAPIKey, error) {
	role := req.Role
	if role == "" {
		role = access.KeyRoleAgent
	}
	if guard := apikey.CanCreateKey(apikey.CreateKeyContext{Name: req.Name, Role: role}); !guard.Allowed {
		return nil, apperr.Validation("%s", guard.Reason)
	}

	secret, err := s.newSecret()
	if err != nil {
		return nil, apperr.Internal("failed to generate api key", err)
	}

	record := &secondary.APIKeyRecord{
		ID:          s.env.NewID(),
		WorkspaceID: scope.WorkspaceID,
		Name:        strings.TrimSpace(req.Name),
		KeyHash:     apikey.HashSecret(secret),
		Role:        role,
		CreatedAt:   s.env.Now(),
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapKeys); err != nil {
			return err
		}
		return storeErr("failed to create api key", repos.APIKeys.Create(ctx, record))
	})
	if err != nil {
		return nil, err
	}

	return &primary.CreatedAPIKey{APIKey: *recordToAPIKey(record), Secret: secret}, nil
}

// ListKeys lists the workspace's keys without their hashes.
func (s *APIKeyServiceImpl) ListKeys(ctx context.Context, scope primary.Scope) ([]*primary.APIKey, error) {
	repos := s.store.Repos()
	if _, err := authorize(ctx, repos, scope, access.CapKeys); err != nil {
		return nil, err
	}

	records, err := repos.APIKeys.ListByWorkspace(ctx, scope.WorkspaceID)
	if err != nil {
		return nil, storeErr("failed to list api keys", err)
	}
	keys := make([]*primary.APIKey, 0, len(records))
	for _, r := range records {
		keys = append(keys, recordToAPIKey(r))
	}
	return keys, nil
}

// UpdateKeyRole changes a key's role. A key cannot demote itself.
func (s *APIKeyServiceImpl) UpdateKeyRole(ctx context.Context, scope primary.Scope, keyID, role string) (*primary.APIKey, error) {
	var result *secondary.APIKeyRecord

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapKeys); err != nil {
			return err
		}
		key, err := loadKey(ctx, repos, keyID, scope.WorkspaceID)
		if err != nil {
			return err
		}

		guard := apikey.CanChangeRole(apikey.ChangeRoleContext{
			KeyID:       key.ID,
			CurrentRole: key.Role,
			NewRole:     role,
			CallerKeyID: scope.Principal.APIKeyID,
		})
		if !guard.Allowed {
			return apperr.Validation("%s", guard.Reason)
		}

		if key.Role != role {
			if err := repos.APIKeys.UpdateRole(ctx, key.ID, role); err != nil {
				return storeErr("failed to update api key role", err)
			}
			key.Role = role
		}
		result = key
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recordToAPIKey(result), nil
}

// DeleteKey revokes a key. A key cannot delete itself.
func (s *APIKeyServiceImpl) DeleteKey(ctx context.Context, scope primary.Scope, keyID string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		if _, err := authorize(ctx, repos, scope, access.CapKeys); err != nil {
			return err
		}
		key, err := loadKey(ctx, repos, keyID, scope.WorkspaceID)
		if err != nil {
			return err
		}

		guard := apikey.CanDeleteKey(apikey.DeleteKeyContext{KeyID: key.ID, CallerKeyID: scope.Principal.APIKeyID})
		if !guard.Allowed {
			return apperr.Validation("%s", guard.Reason)
		}
		return storeErr("failed to delete api key", repos.APIKeys.Delete(ctx, key.ID))
	})
}

func loadKey(ctx context.Context, repos secondary.Repos, keyID, workspaceID string) (*secondary.APIKeyRecord, error) {
	key, err := repos.APIKeys.GetByID(ctx, keyID)
	if err != nil {
		return nil, storeErr("failed to get api key", err)
	}
	if !access.SameWorkspace(key.WorkspaceID, workspaceID) {
		return nil, apperr.NotFound()
	}
	return key, nil
}

var _ primary.APIKeyService = (*APIKeyServiceImpl)(nil)
