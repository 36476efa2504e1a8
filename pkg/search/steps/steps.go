// Package steps contains the search steps a pipeline can run.
package steps

import (
	"github.com/ember-nexus/nexus-search/pkg/access"
	"github.com/ember-nexus/nexus-search/pkg/graph"
	"github.com/ember-nexus/nexus-search/pkg/index"
	"github.com/ember-nexus/nexus-search/pkg/search"
	"github.com/ember-nexus/nexus-search/pkg/storage"
)

const (
	CypherIdentifier           = "cypher"
	CypherPathIdentifier       = "cypherPath"
	ElasticsearchIdentifier    = "elasticsearch"
	ElementHydrationIdentifier = "elementHydration"
)

// Dependencies are the backends the built-in steps run against.
type Dependencies struct {
	Graph    graph.Reader
	Index    index.Searcher
	Groups   access.GroupResolver
	Elements storage.ElementReader

	Paging       PagingConfig
	MaxPathCount int
}

// NewRegistry returns a registry holding every built-in step.
func NewRegistry(deps Dependencies) (*search.Registry, error) {
	return search.NewRegistry(
		NewCypherStep(deps.Graph),
		NewCypherPathStep(deps.Graph, WithMaxPathCount(deps.MaxPathCount)),
		NewElasticsearchStep(deps.Index, deps.Groups, WithPaging(deps.Paging)),
		NewElementHydrationStep(deps.Elements),
	)
}
