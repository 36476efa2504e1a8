// Package presharedkey authenticates callers holding one of a fixed set of
// bearer keys, e.g. the Ember Nexus API forwarding user searches.
package presharedkey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	grpcauth "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"

	"github.com/ember-nexus/nexus-search/internal/authn"
	"github.com/ember-nexus/nexus-search/pkg/authclaims"
)

var errNoKeys = errors.New("invalid auth configuration, please specify at least one key")

type PresharedKeyAuthenticator struct {
	// digests holds the sha256 of each key so that comparisons take the same
	// time regardless of key length.
	digests [][sha256.Size]byte
}

var _ authn.Authenticator = (*PresharedKeyAuthenticator)(nil)

func NewPresharedKeyAuthenticator(validKeys []string) (*PresharedKeyAuthenticator, error) {
	digests := make([][sha256.Size]byte, 0, len(validKeys))
	for _, key := range validKeys {
		if key == "" {
			continue
		}
		digests = append(digests, sha256.Sum256([]byte(key)))
	}

	if len(digests) == 0 {
		return nil, errNoKeys
	}

	return &PresharedKeyAuthenticator{digests: digests}, nil
}

// Authenticate accepts any configured key. The resulting claims carry no
// subject, so the request runs as the anonymous user.
func (pka *PresharedKeyAuthenticator) Authenticate(ctx context.Context) (*authclaims.AuthClaims, error) {
	token, err := grpcauth.AuthFromMD(ctx, "Bearer")
	if err != nil {
		return nil, authn.ErrMissingBearerToken
	}

	digest := sha256.Sum256([]byte(token))

	match := 0
	for i := range pka.digests {
		match |= subtle.ConstantTimeCompare(digest[:], pka.digests[i][:])
	}

	if match == 0 {
		return nil, authn.ErrUnauthenticated
	}

	return &authclaims.AuthClaims{}, nil
}

func (pka *PresharedKeyAuthenticator) Close() {}
