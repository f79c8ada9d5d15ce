// Package workspace contains the pure business logic for workspaces and
// their memberships.
package workspace

import (
	"strings"
	"unicode"

	"github.com/example/kanban/internal/core/access"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

const (
	// DefaultPrefix is used when the name has no ASCII letters.
	DefaultPrefix = "WS"

	maxPrefixWords   = 4
	singleWordLength = 3
)

// Guard messages.
const (
	NameRequiredMessage  = "Workspace name is required"
	LastOwnerMessage     = "A workspace must keep at least one owner"
	OwnerGrantMessage    = "Only owners can grant or revoke the owner role"
	InvalidRoleMessage   = "role must be one of owner, admin, member"
	AlreadyMemberMessage = "User is already a member of this workspace"
)

// DerivePrefix builds the ticket numbering prefix from a workspace name.
// Multi-word names use the initials of the first words, single-word names
// use the first letters. Only ASCII letters survive; the result is upper case.
func DerivePrefix(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var letterWords []string
	for _, w := range words {
		if letters := lettersOnly(w); letters != "" {
			letterWords = append(letterWords, letters)
		}
	}

	switch len(letterWords) {
	case 0:
		return DefaultPrefix
	case 1:
		w := letterWords[0]
		if len(w) > singleWordLength {
			w = w[:singleWordLength]
		}
		return strings.ToUpper(w)
	}

	var b strings.Builder
	for i, w := range letterWords {
		if i == maxPrefixWords {
			break
		}
		b.WriteByte(w[0])
	}
	return strings.ToUpper(b.String())
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isASCIILetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CreateWorkspaceContext provides context for workspace creation guards.
type CreateWorkspaceContext struct {
	Name string
}

// CanCreateWorkspace evaluates whether a workspace can be created.
// Rules:
// - Name must be non-empty after trimming
func CanCreateWorkspace(ctx CreateWorkspaceContext) GuardResult {
	if strings.TrimSpace(ctx.Name) == "" {
		return GuardResult{Allowed: false, Reason: NameRequiredMessage}
	}
	return GuardResult{Allowed: true}
}

// MembershipChangeContext provides context for role change and removal guards.
type MembershipChangeContext struct {
	ActorRole   string // role of the caller; "" for system callers
	CurrentRole string // role of the member being changed
	NewRole     string // "" when the member is being removed
	OwnerCount  int    // number of owners currently in the workspace
}

// CanChangeMembership evaluates whether a member can be demoted, promoted or removed.
// Rules:
// - New role, if given, must be valid
// - Only owners can touch the owner role (system callers are exempt)
// - The last owner can be neither demoted nor removed
func CanChangeMembership(ctx MembershipChangeContext) GuardResult {
	if ctx.NewRole != "" && !access.ValidMembershipRole(ctx.NewRole) {
		return GuardResult{Allowed: false, Reason: InvalidRoleMessage}
	}

	touchesOwner := ctx.CurrentRole == "owner" || ctx.NewRole == "owner"
	if touchesOwner && ctx.ActorRole != "" && ctx.ActorRole != "owner" {
		return GuardResult{Allowed: false, Reason: OwnerGrantMessage}
	}

	losesOwner := ctx.CurrentRole == "owner" && ctx.NewRole != "owner"
	if losesOwner && ctx.OwnerCount <= 1 {
		return GuardResult{Allowed: false, Reason: LastOwnerMessage}
	}

	return GuardResult{Allowed: true}
}

// AddMemberContext provides context for invitations.
type AddMemberContext struct {
	ActorRole     string
	Role          string
	AlreadyMember bool
}

// CanAddMember evaluates whether a user can be added to a workspace.
func CanAddMember(ctx AddMemberContext) GuardResult {
	if !access.ValidMembershipRole(ctx.Role) {
		return GuardResult{Allowed: false, Reason: InvalidRoleMessage}
	}
	if ctx.Role == "owner" && ctx.ActorRole != "" && ctx.ActorRole != "owner" {
		return GuardResult{Allowed: false, Reason: OwnerGrantMessage}
	}
	if ctx.AlreadyMember {
		return GuardResult{Allowed: false, Reason: AlreadyMemberMessage}
	}
	return GuardResult{Allowed: true}
}
