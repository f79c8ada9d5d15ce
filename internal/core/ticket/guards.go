package ticket

import "strings"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// MaxTreeDepth bounds ancestor walks and subtree traversals.
const MaxTreeDepth = 256

// Guard messages surfaced to clients.
const (
	TitleRequiredMessage    = "Title is required"
	InvalidParentMessage    = "Invalid parent ticket"
	CycleMessage            = "Invalid parent ticket: a ticket cannot be nested under itself or its descendants"
	NotClaimableMessage     = "Ticket is not available to claim"
	NotCompletableMessage   = "Ticket must be in progress to complete"
	AssignUnclaimedMessage  = "Ticket is unclaimed; claim it or move it to in_progress before assigning"
	InvalidOwnerTypeMessage = "ownerType must be 'user' or 'agent'"
	OwnerIDRequiredMessage  = "ownerId is required"
	TreeTooDeepMessage      = "Ticket hierarchy is too deep"
)

// CreateTicketContext provides context for ticket creation guards.
type CreateTicketContext struct {
	Title       string
	ParentID    string // optional, empty if not specified
	ParentValid bool   // parent exists in the same workspace; only checked if ParentID != ""
}

// CanCreateTicket evaluates whether a ticket can be created.
// Rules:
// - Title must be non-empty after trimming
// - Parent must exist in the same workspace (if parent_id provided)
func CanCreateTicket(ctx CreateTicketContext) GuardResult {
	if strings.TrimSpace(ctx.Title) == "" {
		return GuardResult{Allowed: false, Reason: TitleRequiredMessage}
	}
	if ctx.ParentID != "" && !ctx.ParentValid {
		return GuardResult{Allowed: false, Reason: InvalidParentMessage}
	}
	return GuardResult{Allowed: true}
}

// ReparentContext provides context for parent change guards.
type ReparentContext struct {
	TicketID    string
	NewParentID string // empty means move to root
	ParentValid bool   // new parent exists in the same workspace
	// AncestorIDs is the chain from the new parent upwards, starting with the
	// new parent itself. Truncated reports the walk hit MaxTreeDepth.
	AncestorIDs []string
	Truncated   bool
}

// CanReparent evaluates whether a ticket can move under a new parent.
// Rules:
// - Moving to root is always allowed
// - New parent must exist in the same workspace
// - New parent must not be the ticket itself or any of its descendants
func CanReparent(ctx ReparentContext) GuardResult {
	if ctx.NewParentID == "" {
		return GuardResult{Allowed: true}
	}
	if !ctx.ParentValid {
		return GuardResult{Allowed: false, Reason: InvalidParentMessage}
	}
	if ctx.NewParentID == ctx.TicketID {
		return GuardResult{Allowed: false, Reason: CycleMessage}
	}
	for _, id := range ctx.AncestorIDs {
		if id == ctx.TicketID {
			return GuardResult{Allowed: false, Reason: CycleMessage}
		}
	}
	if ctx.Truncated {
		return GuardResult{Allowed: false, Reason: TreeTooDeepMessage}
	}
	return GuardResult{Allowed: true}
}

// ClaimContext provides context for claim guards.
type ClaimContext struct {
	TicketID string
	Status   Status
}

// CanClaim evaluates whether a ticket can be claimed.
// Rules:
// - Status must be "unclaimed"
func CanClaim(ctx ClaimContext) GuardResult {
	if ctx.Status != StatusUnclaimed {
		return GuardResult{Allowed: false, Reason: NotClaimableMessage}
	}
	return GuardResult{Allowed: true}
}

// CanComplete evaluates whether a ticket can be completed.
// Rules:
// - Status must be "in_progress"
func CanComplete(ctx ClaimContext) GuardResult {
	if ctx.Status != StatusInProgress {
		return GuardResult{Allowed: false, Reason: NotCompletableMessage}
	}
	return GuardResult{Allowed: true}
}

// AssignContext provides context for assignment guards.
type AssignContext struct {
	Status    Status
	OwnerID   string
	OwnerType string
}

// CanAssign evaluates whether an owner can be set.
// Rules:
// - Owner id and a valid owner type are required
// - An unclaimed ticket never carries an owner
func CanAssign(ctx AssignContext) GuardResult {
	if strings.TrimSpace(ctx.OwnerID) == "" {
		return GuardResult{Allowed: false, Reason: OwnerIDRequiredMessage}
	}
	if !ValidOwnerType(ctx.OwnerType) {
		return GuardResult{Allowed: false, Reason: InvalidOwnerTypeMessage}
	}
	if ctx.Status == StatusUnclaimed {
		return GuardResult{Allowed: false, Reason: AssignUnclaimedMessage}
	}
	return GuardResult{Allowed: true}
}
