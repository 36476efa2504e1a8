package element

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestToRaw(t *testing.T) {
	id := uuid.MustParse("6ce3006b-6b7f-4770-8075-d2bf91804d14")
	start := uuid.MustParse("56fda20c-b238-4034-b555-1df47c47e17a")
	end := uuid.MustParse("0a1f2e48-5c9f-4a86-9bd7-ffeb0e1d8f53")

	tests := []struct {
		name     string
		element  Element
		expected map[string]any
	}{
		{
			name: "node",
			element: Element{
				ID:         id,
				Kind:       KindNode,
				Type:       "Data",
				Properties: map[string]any{"id": id.String(), "name": "some data"},
			},
			expected: map[string]any{
				"type": "Data",
				"id":   id.String(),
				"data": map[string]any{"name": "some data"},
			},
		},
		{
			name: "relation",
			element: Element{
				ID:         id,
				Kind:       KindRelation,
				Type:       "OWNS",
				Start:      start,
				End:        end,
				Properties: nil,
			},
			expected: map[string]any{
				"type":  "OWNS",
				"id":    id.String(),
				"start": start.String(),
				"end":   end.String(),
				"data":  map[string]any{},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.expected, test.element.ToRaw()); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	id := uuid.New()

	require.NoError(t, (&Element{ID: id, Kind: KindNode, Type: "Data"}).Validate())
	require.ErrorContains(t, (&Element{Kind: KindNode, Type: "Data"}).Validate(), "no id")
	require.ErrorContains(t, (&Element{ID: id, Kind: KindNode}).Validate(), "no type")
	require.ErrorContains(t, (&Element{ID: id, Kind: KindRelation, Type: "OWNS"}).Validate(), "requires start and end")
	require.ErrorContains(t, (&Element{ID: id, Kind: "edge", Type: "OWNS"}).Validate(), "unknown kind")
}
