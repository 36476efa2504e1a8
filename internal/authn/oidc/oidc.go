// Package oidc authenticates bearer tokens issued by an OpenID Connect provider.
package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	grpcauth "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/hashicorp/go-retryablehttp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ember-nexus/nexus-search/internal/authn"
	"github.com/ember-nexus/nexus-search/pkg/authclaims"
)

const (
	// DefaultUserIDClaim holds the UUID of the user element unless configured otherwise.
	DefaultUserIDClaim = "sub"

	wellKnownPath      = "/.well-known/openid-configuration"
	jwkRefreshInterval = 48 * time.Hour
	discoveryTimeout   = 30 * time.Second
)

var (
	errInvalidAudience = status.Error(codes.Unauthenticated, "invalid audience")
	errInvalidClaims   = status.Error(codes.Unauthenticated, "invalid claims")
	errInvalidIssuer   = status.Error(codes.Unauthenticated, "invalid issuer")
	errInvalidSubject  = status.Error(codes.Unauthenticated, "invalid subject")
	errInvalidToken    = status.Error(codes.Unauthenticated, "invalid bearer token")
)

// RemoteOidcAuthenticator verifies RS256 tokens against the key set the issuer
// publishes through discovery. Keys are refreshed in the background.
type RemoteOidcAuthenticator struct {
	issuers     []string
	audience    string
	userIDClaim string

	httpClient *http.Client
	parser     *jwt.Parser
	jwks       *keyfunc.JWKS
}

var _ authn.OIDCAuthenticator = (*RemoteOidcAuthenticator)(nil)

// Option customizes a RemoteOidcAuthenticator.
type Option func(*RemoteOidcAuthenticator)

// WithIssuerAliases accepts tokens whose 'iss' is one of aliases, e.g. the
// issuer reached through an internal DNS name.
func WithIssuerAliases(aliases ...string) Option {
	return func(o *RemoteOidcAuthenticator) {
		o.issuers = append(o.issuers, aliases...)
	}
}

// WithUserIDClaim reads the user id from claim instead of 'sub'.
func WithUserIDClaim(claim string) Option {
	return func(o *RemoteOidcAuthenticator) {
		if claim != "" {
			o.userIDClaim = claim
		}
	}
}

// WithHTTPClient replaces the retrying client used for discovery and key fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(o *RemoteOidcAuthenticator) {
		o.httpClient = client
	}
}

// WithKeySet skips discovery and verifies tokens with jwks.
func WithKeySet(jwks *keyfunc.JWKS) Option {
	return func(o *RemoteOidcAuthenticator) {
		o.jwks = jwks
	}
}

// NewRemoteOidcAuthenticator returns an authenticator for tokens issued by
// issuerURL for audience. Unless WithKeySet is given the issuer's key set is
// discovered before returning.
func NewRemoteOidcAuthenticator(issuerURL, audience string, opts ...Option) (*RemoteOidcAuthenticator, error) {
	client := retryablehttp.NewClient()
	client.Logger = nil

	o := &RemoteOidcAuthenticator{
		issuers:     []string{issuerURL},
		audience:    audience,
		userIDClaim: DefaultUserIDClaim,
		httpClient:  client.StandardClient(),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuedAt(),
		),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.jwks != nil {
		return o, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()

	cfg, err := o.GetConfiguration(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching OIDC configuration: %w", err)
	}

	if o.jwks, err = o.GetKeys(ctx, cfg.JWKsURI); err != nil {
		return nil, fmt.Errorf("error fetching OIDC keys: %w", err)
	}

	return o, nil
}

// Authenticate see [authn.Authenticator].Authenticate.
func (o *RemoteOidcAuthenticator) Authenticate(ctx context.Context) (*authclaims.AuthClaims, error) {
	raw, err := grpcauth.AuthFromMD(ctx, "Bearer")
	if err != nil {
		return nil, authn.ErrMissingBearerToken
	}

	if o.jwks == nil {
		return nil, errInvalidToken
	}

	token, err := o.parser.Parse(raw, o.jwks.Keyfunc)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	if issuer, err := claims.GetIssuer(); err != nil || !slices.Contains(o.issuers, issuer) {
		return nil, errInvalidIssuer
	}

	if audiences, err := claims.GetAudience(); err != nil || !slices.Contains(audiences, o.audience) {
		return nil, errInvalidAudience
	}

	result := &authclaims.AuthClaims{Scopes: map[string]bool{}}

	// A missing user id claim is valid: the request runs as the anonymous user.
	if value, ok := claims[o.userIDClaim]; ok {
		if result.Subject, ok = value.(string); !ok {
			return nil, errInvalidSubject
		}
	}

	if clientID, ok := claims["client_id"].(string); ok {
		result.ClientID = clientID
	}

	if scope, ok := claims["scope"].(string); ok {
		for _, s := range strings.Fields(scope) {
			result.Scopes[s] = true
		}
	}

	return result, nil
}

// GetConfiguration fetches the discovery document of the main issuer.
func (o *RemoteOidcAuthenticator) GetConfiguration(ctx context.Context) (*authn.OidcConfig, error) {
	wellKnown := strings.TrimSuffix(o.issuers[0], "/") + wellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return nil, fmt.Errorf("error forming request to get OIDC: %w", err)
	}

	res, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error getting OIDC: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code getting OIDC: %v", res.StatusCode)
	}

	cfg := &authn.OidcConfig{}
	if err := json.NewDecoder(res.Body).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed parsing document: %w", err)
	}

	switch {
	case cfg.Issuer == "":
		return nil, errors.New("missing issuer value")
	case cfg.JWKsURI == "":
		return nil, errors.New("missing jwks_uri value")
	}

	return cfg, nil
}

// GetKeys fetches the key set at jwksURI and keeps it refreshed until Close.
func (o *RemoteOidcAuthenticator) GetKeys(ctx context.Context, jwksURI string) (*keyfunc.JWKS, error) {
	jwks, err := keyfunc.Get(jwksURI, keyfunc.Options{
		Ctx:             context.WithoutCancel(ctx),
		Client:          o.httpClient,
		RefreshInterval: jwkRefreshInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching keys from %v: %w", jwksURI, err)
	}
	return jwks, nil
}

// Close stops the background key refresh.
func (o *RemoteOidcAuthenticator) Close() {
	if o.jwks != nil {
		o.jwks.EndBackground()
	}
}
