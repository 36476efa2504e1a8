package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ember-nexus/nexus-search/pkg/element"
	"github.com/ember-nexus/nexus-search/pkg/storage"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	ds := New(&element.Element{ID: id, Kind: element.KindNode, Type: "Data", Properties: map[string]any{"name": "a"}})
	t.Cleanup(ds.Close)

	got, err := ds.GetElement(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Data", got.Type)

	got.Properties["name"] = "mutated"
	again, err := ds.GetElement(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "a", again.Properties["name"])

	_, err = ds.GetElement(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = ds.Put(ctx, &element.Element{ID: id, Kind: element.KindNode, Type: "Data"})
	require.ErrorIs(t, err, storage.ErrCollision)

	err = ds.Put(ctx, &element.Element{ID: uuid.New(), Kind: element.KindRelation, Type: "OWNS"})
	require.Error(t, err)

	status, err := ds.IsReady(ctx)
	require.NoError(t, err)
	require.True(t, status.IsReady)
}
