package app

import "context"

// RolePlatformOperator is the role required for every lifecycle mutation
// and for exports. The outer auth layer authenticates the caller; this
// package only checks the injected identity.
const RolePlatformOperator = "platform_operator"

// Actor is the authenticated caller injected by the transport layer.
type Actor struct {
	ID   string
	Role string
	IP   string
}

// IsPlatformOperator reports whether the actor may invoke lifecycle and
// deletion operations.
func (a Actor) IsPlatformOperator() bool {
	return a.Role == RolePlatformOperator
}

type actorKey struct{}

// WithActor returns a context carrying the acting identity.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom extracts the acting identity from the context. The zero Actor
// is returned when none was injected; it holds no privilege.
func ActorFrom(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
