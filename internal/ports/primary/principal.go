package primary

import (
	"encoding/json"

	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/ctxutil"
)

// Principal is the resolved identity behind a request: exactly one of a
// session user, an API key, or the system itself.
type Principal struct {
	Kind access.PrincipalKind

	// Session principals.
	UserID      string
	Email       string
	DisplayName string

	// API key principals. WorkspaceID is the key's home workspace.
	WorkspaceID    string
	APIKeyID       string
	KeyName        string
	KeyRole        string
	AgentSessionID string
}

// SystemPrincipal is used by operator tooling.
func SystemPrincipal() Principal {
	return Principal{Kind: access.PrincipalSystem}
}

// IsAgent reports whether the caller authenticated with an API key.
func (p Principal) IsAgent() bool {
	return p.Kind == access.PrincipalAPIKey
}

// OwnerID is the identity written into owner fields when the principal
// claims a ticket.
func (p Principal) OwnerID() string {
	switch p.Kind {
	case access.PrincipalAPIKey:
		if p.AgentSessionID != "" {
			return "session:" + p.AgentSessionID
		}
		return "apikey:" + p.APIKeyID
	case access.PrincipalSession:
		return p.UserID
	}
	return "system"
}

// OwnerType is "agent" for API keys and "user" otherwise.
func (p Principal) OwnerType() string {
	if p.IsAgent() {
		return "agent"
	}
	return "user"
}

// Actor returns the attribution used for comments and activity.
func (p Principal) Actor() ctxutil.Actor {
	switch p.Kind {
	case access.PrincipalAPIKey:
		return ctxutil.Actor{Type: ctxutil.ActorAgent, ID: p.OwnerID(), DisplayName: p.KeyName}
	case access.PrincipalSession:
		name := p.DisplayName
		if name == "" {
			name = p.Email
		}
		return ctxutil.Actor{Type: ctxutil.ActorUser, ID: p.UserID, DisplayName: name}
	}
	return ctxutil.SystemActor()
}

// Scope is a principal acting on one workspace.
type Scope struct {
	Principal   Principal
	WorkspaceID string
}

// OptionalID is a nullable id in a partial update. Set is true when the
// field was present in the payload; an empty ID with Set means "clear".
type OptionalID struct {
	Set bool
	ID  string
}

// SetTo returns an OptionalID that sets the value.
func SetTo(id string) OptionalID {
	return OptionalID{Set: true, ID: id}
}

// UnmarshalJSON records presence, including an explicit null.
func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.ID = ""
		return nil
	}
	return json.Unmarshal(b, &o.ID)
}
