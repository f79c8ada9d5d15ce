// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorType is the discriminant of an Actor.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorAgent  ActorType = "agent"
	ActorSystem ActorType = "system"
)

// Actor attributes a comment, activity or assignment to whoever caused it.
type Actor struct {
	Type        ActorType `json:"type"`
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName,omitempty"`
}

// SystemActor is used when no caller identity is available.
func SystemActor() Actor {
	return Actor{Type: ActorSystem, ID: "system"}
}

// IsZero reports whether the actor is unset.
func (a Actor) IsZero() bool {
	return a.Type == "" && a.ID == ""
}

// ActorKey is the context key for the ambient actor.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// WithActor returns a context with the actor embedded.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorKey{}, actor)
}

// ActorFromContext returns the actor from context and whether one was set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if v, ok := ctx.Value(ActorKey{}).(Actor); ok && !v.IsZero() {
		return v, true
	}
	return Actor{}, false
}

// RequestIDKey is the context key for the request correlation id.
type RequestIDKey struct{}

// WithRequestID returns a context carrying a request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, id)
}

// RequestIDFromContext returns the request id, or empty string if not set.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey{}).(string); ok {
		return v
	}
	return ""
}
