package presharedkey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	"github.com/ember-nexus/nexus-search/internal/authn"
)

func TestNewPresharedKeyAuthenticator(t *testing.T) {
	_, err := NewPresharedKeyAuthenticator(nil)
	require.EqualError(t, err, "invalid auth configuration, please specify at least one key")

	_, err = NewPresharedKeyAuthenticator([]string{""})
	require.ErrorIs(t, err, errNoKeys)
}

func TestPresharedKeyAuthenticator(t *testing.T) {
	authenticator, err := NewPresharedKeyAuthenticator([]string{"key-a", "key-b"})
	require.NoError(t, err)
	defer authenticator.Close()

	t.Run("missing_header", func(t *testing.T) {
		_, err := authenticator.Authenticate(context.Background())
		require.Equal(t, authn.ErrMissingBearerToken, err)
	})

	t.Run("unknown_key", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer key-c"))
		_, err := authenticator.Authenticate(ctx)
		require.Equal(t, authn.ErrUnauthenticated, err)
	})

	t.Run("prefix_of_a_key", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer key-"))
		_, err := authenticator.Authenticate(ctx)
		require.Equal(t, authn.ErrUnauthenticated, err)
	})

	t.Run("valid_key", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer key-b"))
		claims, err := authenticator.Authenticate(ctx)
		require.NoError(t, err)
		require.True(t, claims.IsAnonymous())
	})
}
