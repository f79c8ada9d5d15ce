// Package doc contains the pure business logic for feature docs.
package doc

import "strings"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Guard messages.
const (
	TitleRequiredMessage = "Title is required"
	InvalidParentMessage = "Invalid parent doc"
	CycleMessage         = "Invalid parent doc: a doc cannot be nested under itself or its descendants"
	InvalidStatusMessage = "status must be one of unclaimed, in_progress, done"
	InvalidDocMessage    = "Invalid doc"
)

// CreateDocContext provides context for doc creation guards.
type CreateDocContext struct {
	Title       string
	ParentID    string
	ParentValid bool
}

// CanCreateDoc evaluates whether a doc can be created.
// Rules:
// - Title must be non-empty after trimming
// - Parent, if given, must exist in the same workspace
func CanCreateDoc(ctx CreateDocContext) GuardResult {
	if strings.TrimSpace(ctx.Title) == "" {
		return GuardResult{Allowed: false, Reason: TitleRequiredMessage}
	}
	if ctx.ParentID != "" && !ctx.ParentValid {
		return GuardResult{Allowed: false, Reason: InvalidParentMessage}
	}
	return GuardResult{Allowed: true}
}

// ReparentContext provides context for moving a doc in the tree.
type ReparentContext struct {
	DocID       string
	NewParentID string
	ParentValid bool
	// AncestorIDs of the new parent, nearest first.
	AncestorIDs []string
	Truncated   bool
}

// CanReparent evaluates whether a doc can move under a new parent.
// Rules:
// - Moving to the root is always allowed
// - The new parent must exist in the same workspace
// - The new parent cannot be the doc or one of its descendants
func CanReparent(ctx ReparentContext) GuardResult {
	if ctx.NewParentID == "" {
		return GuardResult{Allowed: true}
	}
	if !ctx.ParentValid {
		return GuardResult{Allowed: false, Reason: InvalidParentMessage}
	}
	if ctx.NewParentID == ctx.DocID || ctx.Truncated {
		return GuardResult{Allowed: false, Reason: CycleMessage}
	}
	for _, id := range ctx.AncestorIDs {
		if id == ctx.DocID {
			return GuardResult{Allowed: false, Reason: CycleMessage}
		}
	}
	return GuardResult{Allowed: true}
}
