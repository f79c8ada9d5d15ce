package app

import (
	"context"
	"errors"
	"regexp"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/core/apikey"
	"github.com/example/kanban/internal/ports/primary"
	"github.com/example/kanban/internal/ports/secondary"
)

// Identity resolution messages.
const (
	MissingAPIKeyMessage         = "Missing X-API-Key header"
	InvalidAPIKeyFormatMessage   = "Invalid API key format"
	InvalidAPIKeyMessage         = "Invalid API key"
	InvalidAgentSessionIDMessage = "Invalid X-Agent-Session-Id"
	InvalidSessionMessage        = "Invalid session"
)

// API key auth metric results.
const (
	authResultOK        = "ok"
	authResultMissing   = "missing"
	authResultMalformed = "malformed"
	authResultInvalid   = "invalid"
)

var agentSessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)

// IdentityServiceImpl implements the IdentityService interface.
type IdentityServiceImpl struct {
	store secondary.Store
	env   Env
}

// NewIdentityService creates a new IdentityService with injected dependencies.
func NewIdentityService(store secondary.Store, env Env) *IdentityServiceImpl {
	return &IdentityServiceImpl{store: store, env: env.withDefaults()}
}

// AuthenticateAPIKey resolves an API key secret. The secret is hashed before
// lookup; the plaintext is never compared or stored.
func (s *IdentityServiceImpl) AuthenticateAPIKey(ctx context.Context, secret, agentSessionID string) (*primary.Principal, error) {
	if secret == "" {
		s.env.Metrics.APIKeyAuth(authResultMissing)
		return nil, apperr.Unauthenticated(MissingAPIKeyMessage)
	}
	if !apikey.HasValidFormat(secret) {
		s.env.Metrics.APIKeyAuth(authResultMalformed)
		return nil, apperr.Unauthenticated(InvalidAPIKeyFormatMessage)
	}

	key, err := s.store.Repos().APIKeys.GetByHash(ctx, apikey.HashSecret(secret))
	if errors.Is(err, secondary.ErrNotFound) {
		s.env.Metrics.APIKeyAuth(authResultInvalid)
		return nil, apperr.Unauthenticated(InvalidAPIKeyMessage)
	}
	if err != nil {
		return nil, apperr.Internal("failed to look up api key", err)
	}

	if agentSessionID != "" && !ValidAgentSessionID(agentSessionID) {
		s.env.Metrics.APIKeyAuth(authResultMalformed)
		return nil, apperr.Validation("%s", InvalidAgentSessionIDMessage)
	}

	s.env.Metrics.APIKeyAuth(authResultOK)
	return &primary.Principal{
		Kind:           access.PrincipalAPIKey,
		WorkspaceID:    key.WorkspaceID,
		APIKeyID:       key.ID,
		KeyName:        key.Name,
		KeyRole:        key.Role,
		AgentSessionID: agentSessionID,
	}, nil
}

// AuthenticateSession turns a verified session into a principal and refreshes
// the profile cache. An unchanged profile is not rewritten, so steady-state
// requests stay read-only.
func (s *IdentityServiceImpl) AuthenticateSession(ctx context.Context, identity primary.SessionIdentity) (*primary.Principal, error) {
	if identity.UserID == "" {
		return nil, apperr.Unauthenticated(InvalidSessionMessage)
	}

	cached, err := s.store.Repos().Profiles.GetByID(ctx, identity.UserID)
	switch {
	case errors.Is(err, secondary.ErrNotFound):
	case err != nil:
		return nil, storeErr("failed to load user profile", err)
	case cached.Email == identity.Email && cached.DisplayName == identity.DisplayName && cached.AvatarURL == identity.AvatarURL:
		return principalForSession(identity), nil
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos secondary.Repos) error {
		return repos.Profiles.Upsert(ctx, &secondary.UserProfileRecord{
			ID:          identity.UserID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			AvatarURL:   identity.AvatarURL,
			UpdatedAt:   s.env.Now(),
		})
	})
	if err != nil {
		return nil, storeErr("failed to refresh user profile", err)
	}
	return principalForSession(identity), nil
}

func principalForSession(identity primary.SessionIdentity) *primary.Principal {
	return &primary.Principal{
		Kind:        access.PrincipalSession,
		UserID:      identity.UserID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}
}

// ValidAgentSessionID reports whether id is an acceptable agent session token.
func ValidAgentSessionID(id string) bool {
	return agentSessionIDPattern.MatchString(id)
}

var _ primary.IdentityService = (*IdentityServiceImpl)(nil)
