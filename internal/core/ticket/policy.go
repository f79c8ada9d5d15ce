// Package ticket contains the pure business logic for ticket operations.
// This is part of the Functional Core - no I/O, only pure functions.
package ticket

import "strings"

// Status is the lifecycle state of a ticket (and of a feature doc).
type Status string

const (
	StatusUnclaimed  Status = "unclaimed"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusUnclaimed, StatusInProgress, StatusDone:
		return s, true
	}
	return "", false
}

// TransitionClass tells standard forward moves apart from everything else.
type TransitionClass string

const (
	ClassStandard    TransitionClass = "standard"
	ClassNonStandard TransitionClass = "non_standard"
)

// ReasonRequiredMessage is returned verbatim when an agent omits a reason.
const ReasonRequiredMessage = "Reason is required for non-standard status transitions"

// Classify returns ClassStandard for no-op changes and single forward steps
// (unclaimed -> in_progress, in_progress -> done). Anything else, including
// skips and backward moves, is ClassNonStandard.
func Classify(from, to Status) TransitionClass {
	switch {
	case from == to:
		return ClassStandard
	case from == StatusUnclaimed && to == StatusInProgress:
		return ClassStandard
	case from == StatusInProgress && to == StatusDone:
		return ClassStandard
	}
	return ClassNonStandard
}

// NormalizeReason trims the reason. Empty after trim means absent.
func NormalizeReason(reason string) string {
	return strings.TrimSpace(reason)
}

// TransitionContext provides context for the status transition guard.
type TransitionContext struct {
	From          Status
	To            Status
	IsAgentCaller bool
	Reason        string
}

// ValidateForActor evaluates whether the caller may perform the transition.
// Rules:
// - Agents must supply a non-empty reason for non-standard transitions
// - Humans are never asked for a reason
func ValidateForActor(ctx TransitionContext) GuardResult {
	if !ctx.IsAgentCaller || ctx.From == ctx.To {
		return GuardResult{Allowed: true}
	}
	if Classify(ctx.From, ctx.To) == ClassNonStandard && NormalizeReason(ctx.Reason) == "" {
		return GuardResult{Allowed: false, Reason: ReasonRequiredMessage}
	}
	return GuardResult{Allowed: true}
}

// Owner identifies who is working a ticket.
type Owner struct {
	ID          string
	Type        string // "user" or "agent"
	DisplayName string
}

// ValidOwnerType reports whether t is an accepted owner kind.
func ValidOwnerType(t string) bool {
	return t == "user" || t == "agent"
}

// StatusTransitionResult captures a status change together with the owner
// fields and parent counter delta that must be written in the same update.
type StatusTransitionResult struct {
	NewStatus Status
	// Owner is the owner after the transition; nil means cleared.
	Owner *Owner
	// DoneDelta is the change to apply to the parent's childDoneCount.
	DoneDelta int
}

// ApplyStatusTransition computes the full effect of moving from -> to.
//   - Moving to unclaimed always clears the owner.
//   - Otherwise an explicit owner replaces the current one, and without one the
//     current owner is preserved.
func ApplyStatusTransition(from, to Status, current, explicit *Owner) StatusTransitionResult {
	result := StatusTransitionResult{NewStatus: to}

	switch {
	case to == StatusUnclaimed:
		result.Owner = nil
	case explicit != nil:
		o := *explicit
		result.Owner = &o
	case current != nil:
		o := *current
		result.Owner = &o
	}

	result.DoneDelta = DoneDelta(from, to)
	return result
}

// DoneDelta returns +1 when a child enters done, -1 when it leaves done.
func DoneDelta(from, to Status) int {
	switch {
	case from != StatusDone && to == StatusDone:
		return 1
	case from == StatusDone && to != StatusDone:
		return -1
	}
	return 0
}

// InitialStatus returns the status of a freshly created ticket.
func InitialStatus() Status {
	return StatusUnclaimed
}
