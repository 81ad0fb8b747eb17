package policies

import (
	"context"
	"errors"
	"strings"
)

const (
	RoleHost  = "host"
	RoleAdmin = "admin"
)

var (
	ErrUnauthenticated = errors.New("policies: authentication required")
	ErrForbidden       = errors.New("policies: insufficient permissions")
)

// Actor is the authenticated caller of a command or query.
type Actor struct {
	ID    string
	Roles []string
}

func (a Actor) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range a.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.ID != ""
}

// RoleRestricted is implemented by messages that need a role.
type RoleRestricted interface {
	RequiredRole() string
}

// ActorRequired is implemented by messages any signed-in caller may send.
type ActorRequired interface {
	RequiresActor() bool
}

// RoleAuthorizer checks RoleRestricted messages against the actor in context.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	if required, ok := message.(ActorRequired); ok && required.RequiresActor() {
		if _, ok := ActorFromContext(ctx); !ok {
			return ErrUnauthenticated
		}
	}
	restricted, ok := message.(RoleRestricted)
	if !ok || restricted.RequiredRole() == "" {
		return nil
	}
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if !actor.HasRole(restricted.RequiredRole()) {
		return ErrForbidden
	}
	return nil
}
