package steps

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ember-nexus/nexus-search/internal/mocks"
	"github.com/ember-nexus/nexus-search/pkg/access"
	"github.com/ember-nexus/nexus-search/pkg/search"
)

var userQuery = map[string]any{"match": map[string]any{"scenario": "general"}}

func TestElasticsearchStep(t *testing.T) {
	userID := uuid.MustParse("a5a7b4b6-0d7d-4d5c-9ad6-3b0a8b7d0f11")
	groupID := uuid.MustParse("1d0a1c02-5f0b-4f8e-9a55-6d6c27b2c0f4")
	hitA := uuid.MustParse("2f3c9b9e-7a2d-4a4e-8a6e-0c1c9f1e2a01")
	hitB := uuid.MustParse("2f3c9b9e-7a2d-4a4e-8a6e-0c1c9f1e2a02")
	ctx := access.ContextWithPrincipal(context.Background(), userID)

	tests := []struct {
		name        string
		parameters  map[string]any
		wantIndices string
		wantFrom    int64
		wantSize    int64
	}{
		{
			name:        "defaults",
			parameters:  map[string]any{},
			wantIndices: "*",
			wantFrom:    0,
			wantSize:    25,
		},
		{
			name: "types_and_paging",
			parameters: map[string]any{
				"nodeTypes":     []any{"Data", "Image"},
				"relationTypes": []any{"OWNS"},
				"page":          int64(3),
				"pageSize":      "10",
			},
			wantIndices: "node_data,node_image,relation_owns",
			wantFrom:    20,
			wantSize:    10,
		},
		{
			name:        "relation_types_only",
			parameters:  map[string]any{"relationTypes": []string{"Created_By"}},
			wantIndices: "relation_created_by",
			wantFrom:    0,
			wantSize:    25,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			searcher := mocks.NewMockSearcher(ctrl)
			groups := mocks.NewMockGroupResolver(ctrl)

			wantQuery := map[string]any{
				"_source": []any{"_id"},
				"from":    test.wantFrom,
				"size":    test.wantSize,
				"query": map[string]any{
					"bool": map[string]any{
						"must": []any{
							userQuery,
							map[string]any{
								"bool": map[string]any{
									"should": []any{
										map[string]any{"terms": map[string]any{"_groupsWithSearchAccess.keyword": []string{groupID.String()}}},
										map[string]any{"term": map[string]any{"_usersWithSearchAccess.keyword": map[string]any{"value": userID.String()}}},
									},
									"minimum_should_match": 1,
								},
							},
						},
					},
				},
			}

			groups.EXPECT().UserGroups(gomock.Any(), userID).Return([]uuid.UUID{groupID}, nil)
			searcher.EXPECT().
				Search(gomock.Any(), test.wantIndices, wantQuery).
				Return([]byte(`{"hits":{"total":{"value":42},"hits":[{"_id":"`+hitA.String()+`"},{"_id":"`+hitB.String()+`"}]}}`), nil)

			result, err := NewElasticsearchStep(searcher, groups).Execute(ctx, userQuery, test.parameters)
			require.NoError(t, err)

			want := map[string]any{
				"elementIds":    []uuid.UUID{hitA, hitB},
				"totalElements": int64(42),
			}
			if diff := cmp.Diff(want, result.Results); diff != "" {
				t.Errorf("results mismatch (-want +got):\n%s", diff)
			}

			debug := result.Debug[ElasticsearchIdentifier].(map[string]any)
			require.Equal(t, test.wantIndices, debug["indices"])
			require.Equal(t, userQuery, debug["query"])
			require.Equal(t, wantQuery, debug["combinedQuery"])
			require.Equal(t, test.parameters, debug["parameters"])
		})
	}
}

func TestElasticsearchStepResultsSerialize(t *testing.T) {
	userID := uuid.New()
	hit := uuid.New()

	ctrl := gomock.NewController(t)
	searcher := mocks.NewMockSearcher(ctrl)
	groups := mocks.NewMockGroupResolver(ctrl)
	groups.EXPECT().UserGroups(gomock.Any(), userID).Return(nil, nil)
	searcher.EXPECT().Search(gomock.Any(), "*", gomock.Any()).
		Return([]byte(`{"hits":{"total":{"value":1},"hits":[{"_id":"`+hit.String()+`"}]}}`), nil)

	result, err := NewElasticsearchStep(searcher, groups).Execute(access.ContextWithPrincipal(context.Background(), userID), userQuery, nil)
	require.NoError(t, err)

	encoded, err := json.Marshal(result.Results)
	require.NoError(t, err)
	require.JSONEq(t, `{"elementIds":["`+hit.String()+`"],"totalElements":1}`, string(encoded))
}

func TestElasticsearchStepInvalidInput(t *testing.T) {
	ctx := access.ContextWithPrincipal(context.Background(), uuid.New())

	tests := []struct {
		name       string
		query      any
		parameters map[string]any
		wantErr    string
	}{
		{
			name:    "string_query",
			query:   "scenario:general",
			wantErr: "Endpoint expects property 'query' to be object, got 'scenario:general'.",
		},
		{
			name:       "node_types_not_array",
			query:      userQuery,
			parameters: map[string]any{"nodeTypes": "Data"},
			wantErr:    "Endpoint expects property 'nodeTypes' to be array, got 'Data'.",
		},
		{
			name:       "relation_types_with_number",
			query:      userQuery,
			parameters: map[string]any{"relationTypes": []any{"OWNS", int64(1)}},
			wantErr:    `Endpoint expects property 'relationTypes' to be array of strings, got '["OWNS",1]'.`,
		},
		{
			name:       "page_not_numeric",
			query:      userQuery,
			parameters: map[string]any{"page": "first"},
			wantErr:    "Endpoint expects property 'page' to be integer, got 'first'.",
		},
		{
			name:       "page_fraction",
			query:      userQuery,
			parameters: map[string]any{"page": 1.5},
			wantErr:    "Endpoint expects property 'page' to be integer, got '1.5'.",
		},
		{
			name:       "page_zero",
			query:      userQuery,
			parameters: map[string]any{"page": int64(0)},
			wantErr:    "Endpoint expects property 'page' to be integer greater than 0, got '0'.",
		},
		{
			name:       "page_size_too_large",
			query:      userQuery,
			parameters: map[string]any{"pageSize": int64(101)},
			wantErr:    "Endpoint expects property 'pageSize' to be integer between 5 and 100, got '101'.",
		},
		{
			name:       "page_size_too_small",
			query:      userQuery,
			parameters: map[string]any{"pageSize": int64(4)},
			wantErr:    "Endpoint expects property 'pageSize' to be integer between 5 and 100, got '4'.",
		},
		{
			name:       "page_beyond_addressable_window",
			query:      userQuery,
			parameters: map[string]any{"page": int64(math.MaxInt64)},
			wantErr:    "Endpoint expects property 'page' to be integer between 1 and 368934881474191032, got '9223372036854775807'.",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			step := NewElasticsearchStep(mocks.NewMockSearcher(ctrl), mocks.NewMockGroupResolver(ctrl))

			_, err := step.Execute(ctx, test.query, test.parameters)

			var inputErr *search.InvalidInputError
			require.ErrorAs(t, err, &inputErr)
			require.EqualError(t, err, test.wantErr)
		})
	}
}

func TestElasticsearchStepCustomPaging(t *testing.T) {
	ctrl := gomock.NewController(t)
	step := NewElasticsearchStep(mocks.NewMockSearcher(ctrl), mocks.NewMockGroupResolver(ctrl),
		WithPaging(PagingConfig{MaxPageSize: 50}))

	_, err := step.Execute(access.ContextWithPrincipal(context.Background(), uuid.New()), userQuery, map[string]any{"pageSize": int64(60)})
	require.EqualError(t, err, "Endpoint expects property 'pageSize' to be integer between 5 and 50, got '60'.")
}

func TestElasticsearchStepFailures(t *testing.T) {
	userID := uuid.New()
	ctx := access.ContextWithPrincipal(context.Background(), userID)

	t.Run("missing_principal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		step := NewElasticsearchStep(mocks.NewMockSearcher(ctrl), mocks.NewMockGroupResolver(ctrl))

		_, err := step.Execute(context.Background(), userQuery, nil)
		require.ErrorIs(t, err, search.ErrMissingPrincipal)
	})

	t.Run("group_lookup_fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		groups := mocks.NewMockGroupResolver(ctrl)
		lookupErr := errors.New("graph unreachable")
		groups.EXPECT().UserGroups(gomock.Any(), userID).Return(nil, lookupErr)

		_, err := NewElasticsearchStep(mocks.NewMockSearcher(ctrl), groups).Execute(ctx, userQuery, nil)
		require.ErrorIs(t, err, lookupErr)
	})

	t.Run("search_fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		searcher := mocks.NewMockSearcher(ctrl)
		groups := mocks.NewMockGroupResolver(ctrl)
		searchErr := errors.New("index unreachable")
		groups.EXPECT().UserGroups(gomock.Any(), userID).Return(nil, nil)
		searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, searchErr)

		_, err := NewElasticsearchStep(searcher, groups).Execute(ctx, userQuery, nil)
		require.ErrorIs(t, err, searchErr)
	})

	malformed := []struct {
		name     string
		response string
	}{
		{name: "not_json", response: `<html>`},
		{name: "no_hits", response: `{"took":3}`},
		{name: "no_total", response: `{"hits":{"hits":[]}}`},
		{name: "id_not_uuid", response: `{"hits":{"total":{"value":1},"hits":[{"_id":"abc"}]}}`},
		{name: "id_not_string", response: `{"hits":{"total":{"value":1},"hits":[{"_id":12}]}}`},
	}
	for _, test := range malformed {
		t.Run("malformed_"+test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			searcher := mocks.NewMockSearcher(ctrl)
			groups := mocks.NewMockGroupResolver(ctrl)
			groups.EXPECT().UserGroups(gomock.Any(), userID).Return(nil, nil)
			searcher.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte(test.response), nil)

			_, err := NewElasticsearchStep(searcher, groups).Execute(ctx, userQuery, nil)

			var contractErr *search.ContractError
			require.ErrorAs(t, err, &contractErr)
		})
	}
}

func TestToInteger(t *testing.T) {
	tests := []struct {
		raw    any
		want   int64
		wantOK bool
	}{
		{raw: 3, want: 3, wantOK: true},
		{raw: int64(7), want: 7, wantOK: true},
		{raw: float64(2), want: 2, wantOK: true},
		{raw: json.Number("12"), want: 12, wantOK: true},
		{raw: " 4 ", want: 4, wantOK: true},
		{raw: "5.0", want: 5, wantOK: true},
		{raw: "5.5", wantOK: false},
		{raw: true, wantOK: false},
		{raw: nil, wantOK: false},
	}

	for _, test := range tests {
		got, ok := toInteger(test.raw)
		require.Equal(t, test.wantOK, ok, "raw %v", test.raw)
		require.Equal(t, test.want, got, "raw %v", test.raw)
	}
}
