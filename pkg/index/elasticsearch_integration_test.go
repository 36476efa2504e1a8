package index_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-nexus/nexus-search/pkg/index"
	storagefixtures "github.com/ember-nexus/nexus-search/pkg/testfixtures/storage"
)

func TestElasticsearchSearcherAgainstCluster(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container backed elasticsearch in short mode")
	}

	cluster := storagefixtures.RunElasticsearchTestContainer(t)
	cluster.MustIndexDocument(t, "node_user", "1", `{"id":"7b80b203-2b82-40f5-accd-c7089fe6114e","name":"alice"}`)
	cluster.MustIndexDocument(t, "node_user", "2", `{"id":"b8a9b9a2-7d37-4a5e-9d36-3bbdc0cbbd8f","name":"bob"}`)

	searcher, err := index.NewElasticsearchSearcher(index.ElasticsearchConfig{
		Addresses: []string{cluster.Address},
	})
	require.NoError(t, err)

	t.Run("match_query", func(t *testing.T) {
		raw, err := searcher.Search(context.Background(), "node_user", map[string]any{
			"query": map[string]any{
				"match": map[string]any{"name": "alice"},
			},
		})
		require.NoError(t, err)

		var response struct {
			Hits struct {
				Hits []struct {
					Source map[string]any `json:"_source"`
				} `json:"hits"`
			} `json:"hits"`
		}
		require.NoError(t, json.Unmarshal(raw, &response))
		require.Len(t, response.Hits.Hits, 1)
		require.Equal(t, "7b80b203-2b82-40f5-accd-c7089fe6114e", response.Hits.Hits[0].Source["id"])
	})

	t.Run("malformed_query_is_a_client_error", func(t *testing.T) {
		_, err := searcher.Search(context.Background(), "node_user", map[string]any{
			"query": map[string]any{"no_such_query": map[string]any{}},
		})
		require.Error(t, err)

		var responseErr *index.ResponseError
		require.True(t, errors.As(err, &responseErr))
		require.True(t, responseErr.IsClientError())
	})
}
