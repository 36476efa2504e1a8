package storage_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ember-nexus/nexus-search/pkg/element"
	"github.com/ember-nexus/nexus-search/pkg/storage"
	storagefixtures "github.com/ember-nexus/nexus-search/pkg/testfixtures/storage"
)

func TestElementDatastores(t *testing.T) {
	engines := []string{"memory", "sqlite", "postgres", "mysql", "graph"}

	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			if engine != "memory" && engine != "sqlite" && testing.Short() {
				t.Skip("skipping container backed datastore in short mode")
			}

			ds := storagefixtures.MustBootstrapDatastore(t, engine)
			runElementDatastoreTests(t, ds)
		})
	}
}

func runElementDatastoreTests(t *testing.T, ds storagefixtures.WritableDatastore) {
	ctx := context.Background()

	start := &element.Element{
		ID:         uuid.New(),
		Kind:       element.KindNode,
		Type:       "User",
		Properties: map[string]any{"name": "alice"},
	}
	end := &element.Element{
		ID:         uuid.New(),
		Kind:       element.KindNode,
		Type:       "Group",
		Properties: map[string]any{"name": "admins"},
	}
	relation := &element.Element{
		ID:         uuid.New(),
		Kind:       element.KindRelation,
		Type:       "IS_IN_GROUP",
		Start:      start.ID,
		End:        end.ID,
		Properties: map[string]any{"since": "2024"},
	}

	for _, e := range []*element.Element{start, end, relation} {
		require.NoError(t, ds.Put(ctx, e))
	}

	t.Run("is_ready", func(t *testing.T) {
		status, err := ds.IsReady(ctx)
		require.NoError(t, err)
		require.True(t, status.IsReady)
	})

	t.Run("get_node", func(t *testing.T) {
		got, err := ds.GetElement(ctx, start.ID)
		require.NoError(t, err)

		if diff := cmp.Diff(start.ToRaw(), got.ToRaw()); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("get_relation", func(t *testing.T) {
		got, err := ds.GetElement(ctx, relation.ID)
		require.NoError(t, err)

		if diff := cmp.Diff(relation.ToRaw(), got.ToRaw()); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("get_unknown_element", func(t *testing.T) {
		_, err := ds.GetElement(ctx, uuid.New())
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}
