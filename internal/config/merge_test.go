package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		parent map[string]any
		child  map[string]any
		want   map[string]any
	}{
		{
			name:   "child overrides scalar",
			parent: map[string]any{"a": 1, "b": 2},
			child:  map[string]any{"b": 3},
			want:   map[string]any{"a": 1, "b": 3},
		},
		{
			name:   "nested maps merged",
			parent: map[string]any{"release": map[string]any{"name": "p", "milestones": []any{"m"}}},
			child:  map[string]any{"release": map[string]any{"name": "c"}},
			want:   map[string]any{"release": map[string]any{"name": "c", "milestones": []any{"m"}}},
		},
		{
			name:   "lists replaced wholesale",
			parent: map[string]any{"before": []any{"a", "b"}},
			child:  map[string]any{"before": []any{"c"}},
			want:   map[string]any{"before": []any{"c"}},
		},
		{
			name:   "child only keys added",
			parent: map[string]any{"a": 1},
			child:  map[string]any{"z": map[string]any{"y": true}},
			want:   map[string]any{"a": 1, "z": map[string]any{"y": true}},
		},
		{
			name:   "map replaced by scalar",
			parent: map[string]any{"a": map[string]any{"b": 1}},
			child:  map[string]any{"a": "flat"},
			want:   map[string]any{"a": "flat"},
		},
		{
			name:   "nil parent",
			parent: nil,
			child:  map[string]any{"a": 1},
			want:   map[string]any{"a": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Merge(tt.parent, tt.child))
		})
	}
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	parent := map[string]any{"a": map[string]any{"b": 1}, "l": []any{"x"}}
	child := map[string]any{"a": map[string]any{"c": 2}}

	out := Merge(parent, child)
	out["a"].(map[string]any)["b"] = 100
	out["l"].([]any)[0] = "changed"

	require.Equal(t, map[string]any{"a": map[string]any{"b": 1}, "l": []any{"x"}}, parent)
	require.Equal(t, map[string]any{"a": map[string]any{"c": 2}}, child)
}
