// Package authn defines how search requests are authenticated. The
// implementations live in the subpackages, one per 'authn.method'.
package authn

import (
	"context"

	"github.com/MicahParks/keyfunc/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ember-nexus/nexus-search/pkg/authclaims"
)

var (
	ErrUnauthenticated    = status.Error(codes.Unauthenticated, "unauthenticated")
	ErrMissingBearerToken = status.Error(codes.Unauthenticated, "missing bearer token")
)

// Authenticator resolves the identity of an incoming request from its
// 'authorization' metadata.
type Authenticator interface {
	// Authenticate returns the claims of the caller, or an Unauthenticated
	// status error. Claims without a subject make the request run as the
	// anonymous user.
	Authenticate(ctx context.Context) (*authclaims.AuthClaims, error)

	// Close releases background resources such as key refreshers.
	Close()
}

// AnonymousAuthenticator accepts every request as the anonymous user. It backs
// the 'none' method.
type AnonymousAuthenticator struct{}

var _ Authenticator = AnonymousAuthenticator{}

func (AnonymousAuthenticator) Authenticate(context.Context) (*authclaims.AuthClaims, error) {
	return &authclaims.AuthClaims{}, nil
}

func (AnonymousAuthenticator) Close() {}

// OidcConfig is the part of the authorization server metadata used for key
// discovery. See https://datatracker.ietf.org/doc/html/rfc8414#section-2
type OidcConfig struct {
	Issuer  string `json:"issuer"`
	JWKsURI string `json:"jwks_uri"`
}

// OIDCAuthenticator is an Authenticator verifying tokens against the keys of
// a remote issuer.
type OIDCAuthenticator interface {
	Authenticator

	GetConfiguration(ctx context.Context) (*OidcConfig, error)
	GetKeys(ctx context.Context, jwksURI string) (*keyfunc.JWKS, error)
}
