// Package access contains the pure authorization rules shared by every
// mutating and reading operation. No I/O: callers load the membership or key
// facts and ask for a Decision.
package access

// PrincipalKind is the discriminant of a resolved caller.
type PrincipalKind string

const (
	PrincipalSession PrincipalKind = "session"
	PrincipalAPIKey  PrincipalKind = "api_key"
	PrincipalSystem  PrincipalKind = "system"
)

// Capability names what an operation needs.
type Capability string

const (
	// CapWork covers tickets, docs, comments and activity.
	CapWork Capability = "work"
	// CapWorkspaceRead covers reading workspace settings and the docs blob.
	CapWorkspaceRead Capability = "workspace_read"
	// CapWorkspaceSettings covers renaming and editing the docs blob.
	CapWorkspaceSettings Capability = "workspace_settings"
	// CapKeys covers API key management.
	CapKeys Capability = "keys"
	// CapMembers covers membership management. Sessions only.
	CapMembers Capability = "members"
	// CapWorkspaceDelete is reserved to owners.
	CapWorkspaceDelete Capability = "workspace_delete"
)

// Key roles.
const (
	KeyRoleAdmin = "admin"
	KeyRoleAgent = "agent"
)

// Membership roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Outcome tells the transport how a denial must be framed.
type Outcome string

const (
	Allow            Outcome = "allow"
	DenyNotFound     Outcome = "not_found"
	DenyForbidden    Outcome = "forbidden"
	DenyUnauthorized Outcome = "unauthorized"
)

// Decision is the result of Authorize.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Denial messages.
const (
	AdminKeyRequiredMessage  = "Admin API key required"
	AdminRoleRequiredMessage = "Workspace admin role required"
	OwnerRoleRequiredMessage = "Workspace owner role required"
	SessionRequiredMessage   = "This operation requires a signed-in user"
	NotMemberMessage         = "Not found"
)

// Request carries the facts Authorize needs.
type Request struct {
	Kind              PrincipalKind
	TargetWorkspaceID string
	Capability        Capability

	// API key facts.
	KeyWorkspaceID string
	KeyRole        string

	// Session facts. MembershipRole is empty when the user has no membership
	// row for the target workspace.
	MembershipRole string
}

// Authorize decides whether a principal may exercise a capability on a
// workspace. Tenant mismatches are framed as not found so a caller cannot
// probe for the existence of other workspaces.
func Authorize(req Request) Decision {
	switch req.Kind {
	case PrincipalSystem:
		return Decision{Outcome: Allow}
	case PrincipalAPIKey:
		return authorizeKey(req)
	case PrincipalSession:
		return authorizeSession(req)
	}
	return Decision{Outcome: DenyUnauthorized, Reason: "Unauthorized"}
}

func authorizeKey(req Request) Decision {
	if req.KeyWorkspaceID == "" || req.KeyWorkspaceID != req.TargetWorkspaceID {
		return Decision{Outcome: DenyNotFound, Reason: NotMemberMessage}
	}
	switch req.Capability {
	case CapWork, CapWorkspaceRead:
		return Decision{Outcome: Allow}
	case CapKeys, CapWorkspaceSettings:
		if req.KeyRole != KeyRoleAdmin {
			return Decision{Outcome: DenyForbidden, Reason: AdminKeyRequiredMessage}
		}
		return Decision{Outcome: Allow}
	case CapMembers, CapWorkspaceDelete:
		return Decision{Outcome: DenyForbidden, Reason: SessionRequiredMessage}
	}
	return Decision{Outcome: DenyForbidden, Reason: AdminKeyRequiredMessage}
}

func authorizeSession(req Request) Decision {
	if req.MembershipRole == "" {
		return Decision{Outcome: DenyNotFound, Reason: NotMemberMessage}
	}
	switch req.Capability {
	case CapWork, CapWorkspaceRead:
		return Decision{Outcome: Allow}
	case CapKeys, CapMembers, CapWorkspaceSettings:
		if !IsManager(req.MembershipRole) {
			return Decision{Outcome: DenyForbidden, Reason: AdminRoleRequiredMessage}
		}
		return Decision{Outcome: Allow}
	case CapWorkspaceDelete:
		if req.MembershipRole != RoleOwner {
			return Decision{Outcome: DenyForbidden, Reason: OwnerRoleRequiredMessage}
		}
		return Decision{Outcome: Allow}
	}
	return Decision{Outcome: DenyForbidden, Reason: AdminRoleRequiredMessage}
}

// IsManager reports whether a membership role may manage the workspace.
func IsManager(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

// ValidMembershipRole reports whether role is a known membership role.
func ValidMembershipRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}

// ValidKeyRole reports whether role is a known API key role.
func ValidKeyRole(role string) bool {
	return role == KeyRoleAdmin || role == KeyRoleAgent
}

// SameWorkspace is the ownership check applied to every entity fetched by id.
// A mismatch must surface as not found.
func SameWorkspace(entityWorkspaceID, principalWorkspaceID string) bool {
	return entityWorkspaceID != "" && entityWorkspaceID == principalWorkspaceID
}
