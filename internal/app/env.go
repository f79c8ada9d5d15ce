// Package app implements the primary ports: every use case runs its guards
// and writes inside one store transaction.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/kanban/internal/apperr"
	"github.com/example/kanban/internal/core/access"
	"github.com/example/kanban/internal/ports/primary"
	"github.com/example/kanban/internal/ports/secondary"
)

// Env carries the injectable clock, id source and metrics sink.
type Env struct {
	Now     func() time.Time
	NewID   func() string
	Metrics secondary.Metrics
}

func (e Env) withDefaults() Env {
	if e.Now == nil {
		e.Now = func() time.Time { return time.Now().UTC() }
	}
	if e.NewID == nil {
		e.NewID = uuid.NewString
	}
	if e.Metrics == nil {
		e.Metrics = secondary.NopMetrics{}
	}
	return e
}

// authorize loads the facts the access gate needs and returns the caller's
// membership role (empty for keys and the system).
func authorize(ctx context.Context, repos secondary.Repos, scope primary.Scope, capability access.Capability) (string, error) {
	p := scope.Principal
	if scope.WorkspaceID == "" {
		return "", apperr.NotFound()
	}

	req := access.Request{
		Kind:              p.Kind,
		TargetWorkspaceID: scope.WorkspaceID,
		Capability:        capability,
	}

	switch p.Kind {
	case access.PrincipalAPIKey:
		req.KeyWorkspaceID = p.WorkspaceID
		req.KeyRole = p.KeyRole
	case access.PrincipalSession:
		m, err := repos.Members.Get(ctx, scope.WorkspaceID, p.UserID)
		switch {
		case err == nil:
			req.MembershipRole = m.Role
		case !errors.Is(err, secondary.ErrNotFound):
			return "", apperr.Internal("failed to load membership", err)
		}
	case access.PrincipalSystem:
		if _, err := repos.Workspaces.GetByID(ctx, scope.WorkspaceID); err != nil {
			return "", storeErr("failed to load workspace", err)
		}
	}

	decision := access.Authorize(req)
	switch decision.Outcome {
	case access.Allow:
		return req.MembershipRole, nil
	case access.DenyNotFound:
		return "", apperr.NotFound()
	case access.DenyForbidden:
		return "", apperr.Forbidden(decision.Reason)
	}
	return "", apperr.Unauthenticated(decision.Reason)
}

// storeErr maps a repository error: missing rows become the uniform not
// found, typed errors pass through, anything else is internal.
func storeErr(message string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, secondary.ErrNotFound) {
		return apperr.NotFound()
	}
	return apperr.Internal(message, err)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
