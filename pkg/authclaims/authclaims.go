// Package authclaims carries the identity a request was authenticated with.
package authclaims

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrSubjectNotUserID is returned when a token subject does not name a user element.
var ErrSubjectNotUserID = errors.New("token subject is not a user id")

type claimsKey struct{}

// AuthClaims is the subset of the OIDC ID token claims the search service reads.
// See https://openid.net/specs/openid-connect-core-1_0.html#IDToken
type AuthClaims struct {
	// Subject is the UUID of the user element. It is empty for preshared key
	// and unauthenticated requests.
	Subject  string
	Scopes   map[string]bool
	ClientID string
}

// IsAnonymous reports whether the claims name no user.
func (c *AuthClaims) IsAnonymous() bool {
	return c == nil || c.Subject == ""
}

// UserID returns the user the request runs as: the subject, or anonymousUserID
// for anonymous claims.
func (c *AuthClaims) UserID(anonymousUserID uuid.UUID) (uuid.UUID, error) {
	if c.IsAnonymous() {
		return anonymousUserID, nil
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrSubjectNotUserID
	}
	return id, nil
}

// NewContext returns a copy of parent carrying claims.
func NewContext(parent context.Context, claims *AuthClaims) context.Context {
	return context.WithValue(parent, claimsKey{}, claims)
}

// FromContext returns the claims stored by NewContext, if any.
func FromContext(ctx context.Context) (*AuthClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*AuthClaims)
	return claims, ok && claims != nil
}
