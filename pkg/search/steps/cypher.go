package steps

import (
	"context"

	"github.com/ember-nexus/nexus-search/pkg/graph"
	"github.com/ember-nexus/nexus-search/pkg/search"
)

// CypherStep runs a caller-supplied read query against the graph backend.
type CypherStep struct {
	graph graph.Reader
}

var _ search.Step = (*CypherStep)(nil)

// NewCypherStep returns a CypherStep reading from reader.
func NewCypherStep(reader graph.Reader) *CypherStep {
	return &CypherStep{graph: reader}
}

// Identifier see [search.Step].Identifier.
func (s *CypherStep) Identifier() string {
	return CypherIdentifier
}

// IsDangerous see [search.Step].IsDangerous.
func (s *CypherStep) IsDangerous() bool {
	return true
}

// Execute runs query in a read transaction. A single row is returned as that
// row's map, any other row count as a list of row maps.
func (s *CypherStep) Execute(ctx context.Context, query any, parameters map[string]any) (*search.StepResult, error) {
	statement, ok := query.(string)
	if !ok {
		return nil, search.NewBadContentError("query", "string", query)
	}

	records, err := s.graph.ReadTransaction(ctx, statement, parameters)
	if err != nil {
		return nil, err
	}

	var results any
	if len(records) == 1 {
		results = map[string]any(records[0])
	} else {
		rows := make([]any, 0, len(records))
		for _, record := range records {
			rows = append(rows, map[string]any(record))
		}
		results = rows
	}

	return search.NewStepResult(s.Identifier(), results, map[string]any{
		"query":      statement,
		"parameters": parameters,
	}), nil
}
