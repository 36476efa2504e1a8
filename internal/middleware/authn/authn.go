package authn

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	grpcauth "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc/metadata"

	"github.com/ember-nexus/nexus-search/internal/authn"
	"github.com/ember-nexus/nexus-search/pkg/access"
	"github.com/ember-nexus/nexus-search/pkg/authclaims"
	httpmiddleware "github.com/ember-nexus/nexus-search/pkg/middleware/http"
	"github.com/ember-nexus/nexus-search/pkg/middleware/logging"
	serverErrors "github.com/ember-nexus/nexus-search/pkg/server/errors"
)

const authorizationHeader = "authorization"

// AuthFunc authenticates gRPC calls and stores the claims in the context.
func AuthFunc(authenticator authn.Authenticator) grpcauth.AuthFunc {
	return func(ctx context.Context) (context.Context, error) {
		claims, err := authenticator.Authenticate(ctx)
		if err != nil {
			return nil, err
		}

		return authclaims.NewContext(ctx, claims), nil
	}
}

// NewHTTPMiddleware authenticates HTTP requests and stores both the claims and
// the resolved principal in the request context. Claims without a subject
// resolve to anonymousUserID.
func NewHTTPMiddleware(authenticator authn.Authenticator, anonymousUserID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if header := r.Header.Get(authorizationHeader); header != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(authorizationHeader, header))
			}

			claims, err := authenticator.Authenticate(ctx)
			if err == nil {
				var principal uuid.UUID
				principal, err = ResolvePrincipal(claims, anonymousUserID)
				if err == nil {
					ctx = authclaims.NewContext(ctx, claims)
					ctx = access.ContextWithPrincipal(ctx, principal)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			logging.SetError(r.Context(), err)
			httpmiddleware.CustomHTTPErrorHandler(w, serverErrors.EncodeError(err))
		})
	}
}

// ResolvePrincipal returns the user a request runs as. A subject which is not
// a user id is rejected as unauthenticated.
func ResolvePrincipal(claims *authclaims.AuthClaims, anonymousUserID uuid.UUID) (uuid.UUID, error) {
	principal, err := claims.UserID(anonymousUserID)
	if err != nil {
		return uuid.Nil, authn.ErrUnauthenticated
	}
	return principal, nil
}
