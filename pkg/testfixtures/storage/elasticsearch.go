package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/require"
)

const (
	elasticsearchImage = "docker.elastic.co/elasticsearch/elasticsearch:8.17.1"
)

// ElasticsearchTestContainer is a single node Elasticsearch cluster with security disabled.
type ElasticsearchTestContainer struct {
	Address string

	client *elasticsearch.Client
}

// RunElasticsearchTestContainer runs an Elasticsearch container and waits until
// the cluster reports at least yellow health.
func RunElasticsearchTestContainer(t testing.TB) *ElasticsearchTestContainer {
	addr := runContainer(t, containerSpec{
		name:  "elasticsearch",
		image: elasticsearchImage,
		env: []string{
			"discovery.type=single-node",
			"xpack.security.enabled=false",
			"ES_JAVA_OPTS=-Xms512m -Xmx512m",
		},
		port: "9200/tcp",
	})

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://" + addr},
	})
	require.NoError(t, err)

	backoffPolicy := backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(2 * time.Minute))
	err = backoff.Retry(func() error {
		res, err := client.Cluster.Health(
			client.Cluster.Health.WithWaitForStatus("yellow"),
			client.Cluster.Health.WithTimeout(5*time.Second),
		)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.IsError() {
			return fmt.Errorf("cluster health: %s", res.Status())
		}
		return nil
	}, backoffPolicy)
	require.NoError(t, err, "failed to connect to elasticsearch container")

	return &ElasticsearchTestContainer{
		Address: "http://" + addr,
		client:  client,
	}
}

// MustIndexDocument stores document under id and refreshes index so the
// document is immediately searchable.
func (c *ElasticsearchTestContainer) MustIndexDocument(t testing.TB, index, id, document string) {
	t.Helper()

	res, err := c.client.Index(
		index,
		strings.NewReader(document),
		c.client.Index.WithDocumentID(id),
		c.client.Index.WithRefresh("true"),
		c.client.Index.WithContext(context.Background()),
	)
	require.NoError(t, err)
	defer res.Body.Close()

	require.False(t, res.IsError(), "index document: %s", res.String())
}
