package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/require"
)

func node(id string) Node {
	return Node{Properties: map[string]any{"id": id}}
}

func relationship(id string) Relationship {
	return Relationship{Properties: map[string]any{"id": id}}
}

func TestPathIdentifierList(t *testing.T) {
	tests := []struct {
		name     string
		path     Path
		expected []any
	}{
		{
			name:     "empty_path",
			path:     Path{},
			expected: []any{},
		},
		{
			name:     "single_node",
			path:     Path{Nodes: []Node{node("n0")}},
			expected: []any{"n0"},
		},
		{
			name: "three_nodes",
			path: Path{
				Nodes:         []Node{node("n0"), node("n1"), node("n2")},
				Relationships: []Relationship{relationship("r0"), relationship("r1")},
			},
			expected: []any{"n0", "r0", "n1", "r1", "n2"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.path.IdentifierList()
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPathIdentifierListLength(t *testing.T) {
	for n := 1; n <= 6; n++ {
		path := Path{}
		for i := 0; i < n; i++ {
			path.Nodes = append(path.Nodes, node(uuid.NewString()))
		}
		for i := 0; i < n-1; i++ {
			path.Relationships = append(path.Relationships, relationship(uuid.NewString()))
		}

		list := path.IdentifierList()
		require.Len(t, list, 2*n-1)
		require.Equal(t, path.Nodes[n-1].Property("id"), list[len(list)-1])
	}
}

func TestRecordPath(t *testing.T) {
	path := Path{Nodes: []Node{node("n0")}}

	got, err := Record{"path": path}.Path("path")
	require.NoError(t, err)
	require.Equal(t, path, got)

	got, err = Record{"path": &path}.Path("path")
	require.NoError(t, err)
	require.Equal(t, path, got)

	_, err = Record{"path": "not a path"}.Path("path")
	require.ErrorIs(t, err, ErrNotAPath)

	_, err = Record{}.Path("path")
	require.ErrorIs(t, err, ErrNotAPath)

	require.True(t, Record{"path": nil}.Has("path"))
	require.False(t, Record{}.Has("path"))
}

func TestNormalizeParameters(t *testing.T) {
	id := uuid.MustParse("1fb6c8a7-1a3a-4f0b-a9c4-3b0c93e5e5b1")

	got := NormalizeParameters(map[string]any{
		"id":     id,
		"ids":    []uuid.UUID{id},
		"nested": map[string]any{"list": []any{id, 3}},
		"rows":   []map[string]any{{"id": id}},
		"count":  5,
		"name":   "test",
	})

	expected := map[string]any{
		"id":     id.String(),
		"ids":    []any{id.String()},
		"nested": map[string]any{"list": []any{id.String(), int64(3)}},
		"rows":   []any{map[string]any{"id": id.String()}},
		"count":  int64(5),
		"name":   "test",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, map[string]any{}, NormalizeParameters(nil))
}

func TestConvertValue(t *testing.T) {
	n0 := neo4j.Node{ElementId: "4:x:0", Labels: []string{"Data"}, Props: map[string]any{"id": "n0"}}
	n1 := neo4j.Node{ElementId: "4:x:1", Labels: []string{"Data"}, Props: map[string]any{"id": "n1"}}
	r0 := neo4j.Relationship{ElementId: "5:x:0", StartElementId: "4:x:0", EndElementId: "4:x:1", Type: "OWNS", Props: map[string]any{"id": "r0"}}

	got := convertValue(map[string]any{
		"path":  neo4j.Path{Nodes: []neo4j.Node{n0, n1}, Relationships: []neo4j.Relationship{r0}},
		"nodes": []any{n0},
		"count": int64(2),
	})

	expected := map[string]any{
		"path": Path{
			Nodes: []Node{
				{ElementID: "4:x:0", Labels: []string{"Data"}, Properties: map[string]any{"id": "n0"}},
				{ElementID: "4:x:1", Labels: []string{"Data"}, Properties: map[string]any{"id": "n1"}},
			},
			Relationships: []Relationship{
				{ElementID: "5:x:0", StartElementID: "4:x:0", EndElementID: "4:x:1", Type: "OWNS", Properties: map[string]any{"id": "r0"}},
			},
		},
		"nodes": []any{Node{ElementID: "4:x:0", Labels: []string{"Data"}, Properties: map[string]any{"id": "n0"}}},
		"count": int64(2),
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertRecord(t *testing.T) {
	record := &neo4j.Record{Keys: []string{"a", "b"}, Values: []any{int64(1), "x"}}

	require.Equal(t, Record{"a": int64(1), "b": "x"}, convertRecord(record))
}
