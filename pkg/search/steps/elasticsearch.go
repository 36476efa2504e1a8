package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/ember-nexus/nexus-search/pkg/access"
	"github.com/ember-nexus/nexus-search/pkg/index"
	"github.com/ember-nexus/nexus-search/pkg/search"
)

const (
	DefaultPage        = 1
	DefaultPageSize    = 25
	DefaultMinPageSize = 5
	DefaultMaxPageSize = 100

	allIndices = "*"
)

// PagingConfig bounds the page window of index searches.
type PagingConfig struct {
	DefaultPageSize int
	MinPageSize     int
	MaxPageSize     int
}

func (c PagingConfig) withDefaults() PagingConfig {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = DefaultPageSize
	}
	if c.MinPageSize <= 0 {
		c.MinPageSize = DefaultMinPageSize
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = DefaultMaxPageSize
	}
	return c
}

// ElasticsearchStepOption configures an ElasticsearchStep.
type ElasticsearchStepOption func(*ElasticsearchStep)

// WithPaging sets the page size bounds. Zero fields keep their defaults.
func WithPaging(paging PagingConfig) ElasticsearchStepOption {
	return func(s *ElasticsearchStep) {
		s.paging = paging.withDefaults()
	}
}

// ElasticsearchStep runs a structured query against the index backend,
// restricted to documents the current principal may find.
type ElasticsearchStep struct {
	index  index.Searcher
	groups access.GroupResolver
	paging PagingConfig
}

var _ search.Step = (*ElasticsearchStep)(nil)

// NewElasticsearchStep returns an ElasticsearchStep.
func NewElasticsearchStep(searcher index.Searcher, groups access.GroupResolver, opts ...ElasticsearchStepOption) *ElasticsearchStep {
	s := &ElasticsearchStep{
		index:  searcher,
		groups: groups,
		paging: PagingConfig{}.withDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identifier see [search.Step].Identifier.
func (s *ElasticsearchStep) Identifier() string {
	return ElasticsearchIdentifier
}

// IsDangerous see [search.Step].IsDangerous.
func (s *ElasticsearchStep) IsDangerous() bool {
	return false
}

// Execute see [search.Step].Execute. Results are {elementIds, totalElements}.
func (s *ElasticsearchStep) Execute(ctx context.Context, query any, parameters map[string]any) (*search.StepResult, error) {
	userQuery, ok := query.(map[string]any)
	if !ok {
		return nil, search.NewBadContentError("query", "object", query)
	}

	nodeIndices, err := prefixedTypes(parameters, "nodeTypes", "node_")
	if err != nil {
		return nil, err
	}
	relationIndices, err := prefixedTypes(parameters, "relationTypes", "relation_")
	if err != nil {
		return nil, err
	}
	indices := allIndices
	if all := append(nodeIndices, relationIndices...); len(all) > 0 {
		indices = strings.Join(all, ",")
	}

	page, err := integerParameter(parameters, "page", DefaultPage)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, search.NewBadContentError("page", "integer greater than 0", parameters["page"])
	}

	pageSize, err := integerParameter(parameters, "pageSize", int64(s.paging.DefaultPageSize))
	if err != nil {
		return nil, err
	}
	if pageSize < int64(s.paging.MinPageSize) || pageSize > int64(s.paging.MaxPageSize) {
		return nil, search.NewBadContentError(
			"pageSize",
			fmt.Sprintf("integer between %d and %d", s.paging.MinPageSize, s.paging.MaxPageSize),
			parameters["pageSize"],
		)
	}
	if maxPage := math.MaxInt64 / pageSize; page > maxPage {
		return nil, search.NewBadContentError("page", fmt.Sprintf("integer between 1 and %d", maxPage), parameters["page"])
	}

	userID, ok := access.PrincipalFromContext(ctx)
	if !ok {
		return nil, search.ErrMissingPrincipal
	}

	groups, err := s.groups.UserGroups(ctx, userID)
	if err != nil {
		return nil, err
	}

	combinedQuery := combineQuery(userQuery, userID, groups, page, pageSize)

	raw, err := s.index.Search(ctx, indices, combinedQuery)
	if err != nil {
		return nil, err
	}

	elementIDs, totalElements, err := parseSearchResponse(raw)
	if err != nil {
		return nil, err
	}

	return search.NewStepResult(s.Identifier(), map[string]any{
		"elementIds":    elementIDs,
		"totalElements": totalElements,
	}, map[string]any{
		"query":         userQuery,
		"combinedQuery": combinedQuery,
		"parameters":    parameters,
		"indices":       indices,
	}), nil
}

// combineQuery wraps userQuery with the pagination window and a clause that
// matches documents shared with one of groups or with userID directly.
func combineQuery(userQuery map[string]any, userID uuid.UUID, groups []uuid.UUID, page, pageSize int64) map[string]any {
	groupIDs := make([]string, 0, len(groups))
	for _, group := range groups {
		groupIDs = append(groupIDs, group.String())
	}

	return map[string]any{
		"_source": []any{"_id"},
		"from":    (page - 1) * pageSize,
		"size":    pageSize,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					userQuery,
					map[string]any{
						"bool": map[string]any{
							"should": []any{
								map[string]any{
									"terms": map[string]any{
										"_groupsWithSearchAccess.keyword": groupIDs,
									},
								},
								map[string]any{
									"term": map[string]any{
										"_usersWithSearchAccess.keyword": map[string]any{
											"value": userID.String(),
										},
									},
								},
							},
							"minimum_should_match": 1,
						},
					},
				},
			},
		},
	}
}

func parseSearchResponse(raw []byte) ([]uuid.UUID, int64, error) {
	if !gjson.ValidBytes(raw) {
		return nil, 0, search.NewContractError("Unknown response type for elastic search query.", map[string]any{
			"response": string(raw),
		})
	}

	response := gjson.ParseBytes(raw)
	hits := response.Get("hits.hits")
	total := response.Get("hits.total.value")
	if !hits.IsArray() || total.Type != gjson.Number {
		return nil, 0, search.NewContractError("Unknown response type for elastic search query.", map[string]any{
			"response": string(raw),
		})
	}

	elementIDs := make([]uuid.UUID, 0, len(hits.Array()))
	for _, hit := range hits.Array() {
		rawID := hit.Get("_id")
		elementID, err := uuid.Parse(rawID.String())
		if rawID.Type != gjson.String || err != nil {
			return nil, 0, search.NewContractError("Search index returned a hit without a valid element id.", map[string]any{
				"hit": hit.Raw,
			})
		}
		elementIDs = append(elementIDs, elementID)
	}

	return elementIDs, total.Int(), nil
}

// prefixedTypes maps the optional list parameter name to lower-cased index names.
func prefixedTypes(parameters map[string]any, name, prefix string) ([]string, error) {
	raw, exists := parameters[name]
	if !exists {
		return nil, nil
	}

	var types []string
	switch v := raw.(type) {
	case []string:
		types = v
	case []any:
		types = make([]string, 0, len(v))
		for _, item := range v {
			typeName, ok := item.(string)
			if !ok {
				return nil, search.NewBadContentError(name, "array of strings", raw)
			}
			types = append(types, typeName)
		}
	default:
		return nil, search.NewBadContentError(name, "array", raw)
	}

	indices := make([]string, 0, len(types))
	for _, typeName := range types {
		indices = append(indices, prefix+strings.ToLower(typeName))
	}
	return indices, nil
}

// integerParameter reads an optional whole number. Numeric strings are accepted.
func integerParameter(parameters map[string]any, name string, fallback int64) (int64, error) {
	raw, exists := parameters[name]
	if !exists {
		return fallback, nil
	}

	value, ok := toInteger(raw)
	if !ok {
		return 0, search.NewBadContentError(name, "integer", raw)
	}
	return value, nil
}

func toInteger(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return floatToInteger(v)
	case json.Number:
		return toInteger(string(v))
	case string:
		trimmed := strings.TrimSpace(v)
		if parsed, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return parsed, true
		}
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return floatToInteger(parsed)
		}
	}
	return 0, false
}

func floatToInteger(v float64) (int64, bool) {
	if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt64 || v < math.MinInt64 {
		return 0, false
	}
	return int64(v), true
}
