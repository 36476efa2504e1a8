//go:generate mockgen -source access.go -destination ../../internal/mocks/mock_access.go -package mocks GroupResolver

// Package access resolves the identity and group memberships used to build
// access-control clauses.
package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Yiling-J/theine-go"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/ember-nexus/nexus-search/pkg/graph"
)

const (
	userGroupsQuery = "MATCH (u:User {id: $userId})-[:IS_IN_GROUP*1..]->(g:Group) RETURN DISTINCT g.id AS id"

	defaultCacheSize int64 = 10000
	defaultCacheTTL        = 60 * time.Second
)

var tracer = otel.Tracer("pkg/access")

// GroupResolver returns the groups a user belongs to, directly or transitively.
type GroupResolver interface {
	UserGroups(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// GraphGroupResolver reads group memberships from the graph backend.
type GraphGroupResolver struct {
	reader graph.Reader
}

var _ GroupResolver = (*GraphGroupResolver)(nil)

// NewGraphGroupResolver returns a resolver querying reader on every call.
func NewGraphGroupResolver(reader graph.Reader) *GraphGroupResolver {
	return &GraphGroupResolver{reader: reader}
}

// UserGroups see [GroupResolver].UserGroups.
func (r *GraphGroupResolver) UserGroups(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "access.UserGroups", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	rows, err := r.reader.ReadTransaction(ctx, userGroupsQuery, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("load groups of user '%s': %w", userID, err)
	}

	groups := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		raw, ok := row["id"].(string)
		if !ok {
			return nil, fmt.Errorf("group of user '%s' has id of type %T", userID, row["id"])
		}
		groupID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("group of user '%s' has invalid id '%s': %w", userID, raw, err)
		}
		groups = append(groups, groupID)
	}

	return groups, nil
}

// CachedGroupResolverOpt configures a CachedGroupResolver.
type CachedGroupResolverOpt func(*CachedGroupResolver)

// WithCacheSize sets the maximum number of cached users.
func WithCacheSize(size int64) CachedGroupResolverOpt {
	return func(r *CachedGroupResolver) {
		r.cacheSize = size
	}
}

// WithCacheTTL sets how long a membership list is served from the cache.
func WithCacheTTL(ttl time.Duration) CachedGroupResolverOpt {
	return func(r *CachedGroupResolver) {
		r.cacheTTL = ttl
	}
}

// CachedGroupResolver caches the memberships returned by a delegate and
// collapses concurrent lookups of the same user into one delegate call.
type CachedGroupResolver struct {
	delegate  GroupResolver
	cache     *theine.Cache[uuid.UUID, []uuid.UUID]
	group     singleflight.Group
	cacheSize int64
	cacheTTL  time.Duration
	closeOnce sync.Once
}

var _ GroupResolver = (*CachedGroupResolver)(nil)

// NewCachedGroupResolver wraps delegate with a TTL cache.
func NewCachedGroupResolver(delegate GroupResolver, opts ...CachedGroupResolverOpt) (*CachedGroupResolver, error) {
	r := &CachedGroupResolver{
		delegate:  delegate,
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
	}

	for _, opt := range opts {
		opt(r)
	}

	cache, err := theine.NewBuilder[uuid.UUID, []uuid.UUID](r.cacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("initialize group cache: %w", err)
	}
	r.cache = cache

	return r, nil
}

// UserGroups see [GroupResolver].UserGroups.
func (r *CachedGroupResolver) UserGroups(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if groups, ok := r.cache.Get(userID); ok {
		return groups, nil
	}

	// The shared lookup must outlive any single caller; each caller stops
	// waiting on its own context instead.
	sharedCtx := context.WithoutCancel(ctx)
	resultCh := r.group.DoChan(userID.String(), func() (interface{}, error) {
		groups, err := r.delegate.UserGroups(sharedCtx, userID)
		if err != nil {
			return nil, err
		}
		r.cache.SetWithTTL(userID, groups, 1, r.cacheTTL)
		return groups, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]uuid.UUID), nil
	}
}

// Close releases the cache.
func (r *CachedGroupResolver) Close() {
	r.closeOnce.Do(func() {
		r.cache.Close()
	})
}
