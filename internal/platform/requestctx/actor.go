// Package requestctx carries per-request identity through context.
package requestctx

import "context"

// actorIDContextKey is the context key for the acting user identity.
type actorIDContextKey struct{}

// WithActorID stores the acting user identifier in context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorIDContextKey{}, actorID)
}

// ActorIDFromContext returns the acting user identifier stored in context.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(actorIDContextKey{}).(string)
	return value
}
