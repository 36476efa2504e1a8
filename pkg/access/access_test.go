package access

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ember-nexus/nexus-search/internal/mocks"
	"github.com/ember-nexus/nexus-search/pkg/graph"
)

func TestPrincipalFromContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	require.False(t, ok)

	userID := uuid.New()
	got, ok := PrincipalFromContext(ContextWithPrincipal(context.Background(), userID))
	require.True(t, ok)
	require.Equal(t, userID, got)
}

func TestGraphGroupResolver(t *testing.T) {
	userID := uuid.New()
	groupA := uuid.New()
	groupB := uuid.New()

	t.Run("parses_group_ids", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reader := mocks.NewMockReader(ctrl)
		reader.EXPECT().
			ReadTransaction(gomock.Any(), userGroupsQuery, map[string]any{"userId": userID}).
			Return([]graph.Record{{"id": groupA.String()}, {"id": groupB.String()}}, nil)

		groups, err := NewGraphGroupResolver(reader).UserGroups(context.Background(), userID)
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{groupA, groupB}, groups)
	})

	t.Run("no_groups", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reader := mocks.NewMockReader(ctrl)
		reader.EXPECT().ReadTransaction(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		groups, err := NewGraphGroupResolver(reader).UserGroups(context.Background(), userID)
		require.NoError(t, err)
		require.Empty(t, groups)
	})

	t.Run("invalid_id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reader := mocks.NewMockReader(ctrl)
		reader.EXPECT().ReadTransaction(gomock.Any(), gomock.Any(), gomock.Any()).Return([]graph.Record{{"id": "not-a-uuid"}}, nil)

		_, err := NewGraphGroupResolver(reader).UserGroups(context.Background(), userID)
		require.ErrorContains(t, err, "invalid id 'not-a-uuid'")
	})

	t.Run("backend_error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reader := mocks.NewMockReader(ctrl)
		backendErr := errors.New("unreachable")
		reader.EXPECT().ReadTransaction(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, backendErr)

		_, err := NewGraphGroupResolver(reader).UserGroups(context.Background(), userID)
		require.ErrorIs(t, err, backendErr)
	})
}

func TestCachedGroupResolver(t *testing.T) {
	userID := uuid.New()
	groups := []uuid.UUID{uuid.New()}

	t.Run("serves_repeated_lookups_from_cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		delegate := mocks.NewMockGroupResolver(ctrl)
		delegate.EXPECT().UserGroups(gomock.Any(), userID).Return(groups, nil).Times(1)

		resolver, err := NewCachedGroupResolver(delegate)
		require.NoError(t, err)
		t.Cleanup(resolver.Close)

		for range 3 {
			got, err := resolver.UserGroups(context.Background(), userID)
			require.NoError(t, err)
			require.Equal(t, groups, got)
		}
	})

	t.Run("errors_are_not_cached", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		delegate := mocks.NewMockGroupResolver(ctrl)
		gomock.InOrder(
			delegate.EXPECT().UserGroups(gomock.Any(), userID).Return(nil, errors.New("unreachable")),
			delegate.EXPECT().UserGroups(gomock.Any(), userID).Return(groups, nil),
		)

		resolver, err := NewCachedGroupResolver(delegate, WithCacheSize(10))
		require.NoError(t, err)
		t.Cleanup(resolver.Close)

		_, err = resolver.UserGroups(context.Background(), userID)
		require.Error(t, err)

		got, err := resolver.UserGroups(context.Background(), userID)
		require.NoError(t, err)
		require.Equal(t, groups, got)
	})

	t.Run("concurrent_lookups", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		delegate := mocks.NewMockGroupResolver(ctrl)
		delegate.EXPECT().UserGroups(gomock.Any(), userID).Return(groups, nil).MinTimes(1)

		resolver, err := NewCachedGroupResolver(delegate)
		require.NoError(t, err)
		t.Cleanup(resolver.Close)

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := resolver.UserGroups(context.Background(), userID)
				require.NoError(t, err)
				require.Equal(t, groups, got)
			}()
		}
		wg.Wait()
	})

	t.Run("cancelled_caller_does_not_fail_other_waiters", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		delegate := mocks.NewMockGroupResolver(ctrl)
		entered := make(chan struct{})
		release := make(chan struct{})
		delegate.EXPECT().UserGroups(gomock.Any(), userID).
			DoAndReturn(func(ctx context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
				close(entered)
				<-release
				return groups, ctx.Err()
			}).Times(1)

		resolver, err := NewCachedGroupResolver(delegate)
		require.NoError(t, err)
		t.Cleanup(resolver.Close)

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := resolver.UserGroups(ctxA, userID)
			errA <- err
		}()
		<-entered

		type result struct {
			groups []uuid.UUID
			err    error
		}
		resB := make(chan result, 1)
		go func() {
			got, err := resolver.UserGroups(context.Background(), userID)
			resB <- result{got, err}
		}()

		cancelA()
		require.ErrorIs(t, <-errA, context.Canceled)

		close(release)
		got := <-resB
		require.NoError(t, got.err)
		require.Equal(t, groups, got.groups)
	})
}
