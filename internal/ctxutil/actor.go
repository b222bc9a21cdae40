// Package ctxutil carries the acting user through request contexts. It has
// no internal dependencies so any layer can import it.
package ctxutil

import "context"

// SystemActor is recorded for status changes made without a human actor,
// which is every change written by a reconciliation pass.
const SystemActor = "system:reconciler"

type actorKey struct{}

// WithActorID returns a context with the actor ID embedded.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the actor ID from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}

// ActorOrSystem returns the context actor, falling back to SystemActor.
func ActorOrSystem(ctx context.Context) string {
	if actor := ActorFromContext(ctx); actor != "" {
		return actor
	}
	return SystemActor
}

// IsSystemActor reports whether actorID denotes an automated writer.
func IsSystemActor(actorID string) bool {
	return actorID == SystemActor
}
