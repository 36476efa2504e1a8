package steps

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ember-nexus/nexus-search/pkg/graph"
	"github.com/ember-nexus/nexus-search/pkg/search"
)

// DefaultMaxPathCount is the number of rows a path query may return.
const DefaultMaxPathCount = 100

// forbiddenKeywords are matched as case-insensitive substrings, in this order.
var forbiddenKeywords = []string{
	"CASE",
	"WHEN",
	"THEN",
	"ELSE",
	"END",
	"IF",
	"IS",
	"apoc",
}

// CypherPathStepOption configures a CypherPathStep.
type CypherPathStepOption func(*CypherPathStep)

// WithMaxPathCount sets the row limit. Values below 1 keep the default.
func WithMaxPathCount(limit int) CypherPathStepOption {
	return func(s *CypherPathStep) {
		if limit > 0 {
			s.maxPathCount = limit
		}
	}
}

// CypherPathStep runs a restricted read query that returns a 'path' column and
// reports each path as a flat list of element ids.
type CypherPathStep struct {
	graph        graph.Reader
	maxPathCount int
}

var _ search.Step = (*CypherPathStep)(nil)

// NewCypherPathStep returns a CypherPathStep reading from reader.
func NewCypherPathStep(reader graph.Reader, opts ...CypherPathStepOption) *CypherPathStep {
	s := &CypherPathStep{
		graph:        reader,
		maxPathCount: DefaultMaxPathCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identifier see [search.Step].Identifier.
func (s *CypherPathStep) Identifier() string {
	return CypherPathIdentifier
}

// IsDangerous see [search.Step].IsDangerous.
func (s *CypherPathStep) IsDangerous() bool {
	return true
}

// Execute see [search.Step].Execute. The step yields no results; the id lists
// are only reported in the debug payload.
func (s *CypherPathStep) Execute(ctx context.Context, query any, parameters map[string]any) (*search.StepResult, error) {
	statement, ok := query.(string)
	if !ok {
		return nil, search.NewBadContentError("query", "string", query)
	}

	if keyword, found := findForbiddenKeyword(statement); found {
		forbiddenKeywordCounter.WithLabelValues(keyword).Inc()
		return nil, &search.ForbiddenKeywordError{Keyword: keyword}
	}

	records, err := s.graph.ReadTransaction(ctx, statement, parameters)
	if err != nil {
		return nil, err
	}

	if len(records) > s.maxPathCount {
		return nil, &search.ResourceLimitError{
			Limit: s.maxPathCount,
			Message: fmt.Sprintf(
				"Reached limit of paths to be returned internally. Use offset based pagination with limit %d to fix this.",
				s.maxPathCount,
			),
		}
	}

	lists := make([]any, 0, len(records))
	for _, record := range records {
		if !record.Has("path") {
			return nil, search.NewContractError("Expected result set to contain property 'path'.", map[string]any{
				"columns": columns(record),
			})
		}
		path, err := record.Path("path")
		if err != nil {
			return nil, search.NewContractError("Expected variable 'path' to be of type 'Path'.", map[string]any{
				"type": fmt.Sprintf("%T", record["path"]),
			})
		}
		lists = append(lists, path.IdentifierList())
	}

	return search.NewStepResult(s.Identifier(), []any{}, map[string]any{
		"query":      statement,
		"parameters": parameters,
		"lists":      lists,
	}), nil
}

func findForbiddenKeyword(query string) (string, bool) {
	lowered := strings.ToLower(query)
	for _, keyword := range forbiddenKeywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}

func columns(record graph.Record) []string {
	return slices.Sorted(maps.Keys(record))
}
