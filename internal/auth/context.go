// Package auth threads the authenticated identity through request contexts.
package auth

import (
	"context"

	"user-management-api/internal/model"
)

type contextKey string

const identityContextKey contextKey = "auth_identity"

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	return identity, ok
}
