package access

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// ContextWithPrincipal attaches the id of the user on whose behalf the request runs.
func ContextWithPrincipal(parent context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(parent, principalKey{}, userID)
}

// PrincipalFromContext returns the user id attached by ContextWithPrincipal.
func PrincipalFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(principalKey{}).(uuid.UUID)
	return userID, ok
}
