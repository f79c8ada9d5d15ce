package primary

import "context"

// IdentityService resolves request credentials into a Principal.
type IdentityService interface {
	// AuthenticateAPIKey resolves an X-API-Key secret, optionally refined by
	// an X-Agent-Session-Id.
	AuthenticateAPIKey(ctx context.Context, secret, agentSessionID string) (*Principal, error)

	// AuthenticateSession turns a verified upstream session into a principal
	// and refreshes the cached profile.
	AuthenticateSession(ctx context.Context, identity SessionIdentity) (*Principal, error)
}

// SessionIdentity is what the upstream session mechanism vouches for.
type SessionIdentity struct {
	UserID      string
	Email       string
	DisplayName string
	AvatarURL   string
}
