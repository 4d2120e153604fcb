// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/graph"
)

// star links node 0 to nodes 1..7 with the given weights.
func star(t *testing.T, weights ...int) *graph.Dense {
	t.Helper()
	g := graph.NewDense(len(weights) + 1)
	for i := 0; i <= len(weights); i++ {
		require.NoError(t, g.AddNode(i, catalog.Movie{ID: i}))
	}
	for i, w := range weights {
		require.NoError(t, g.AddEdge(0, i+1, w))
	}
	return g
}

func TestTopK(t *testing.T) {
	g := star(t, 7, 10, 8, 10, 9, 7, 11)

	tests := []struct {
		name string
		k    int
		want []graph.Neighbor[int]
	}{
		{
			name: "default k",
			k:    DefaultK,
			want: []graph.Neighbor[int]{{7, 11}, {2, 10}, {4, 10}, {5, 9}, {3, 8}},
		},
		{
			name: "zero k",
			k:    0,
			want: []graph.Neighbor[int]{},
		},
		{
			name: "k=2 keeps insertion order on ties",
			k:    2,
			want: []graph.Neighbor[int]{{7, 11}, {2, 10}},
		},
		{
			name: "k larger than degree",
			k:    50,
			want: []graph.Neighbor[int]{{7, 11}, {2, 10}, {4, 10}, {5, 9}, {3, 8}, {1, 7}, {6, 7}},
		},
		{
			name: "negative k",
			k:    -1,
			want: []graph.Neighbor[int]{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopK[int](g, 0, tt.k))
		})
	}
}

func TestTopK_SubsetOfNeighbors(t *testing.T) {
	g := star(t, 9, 8, 12, 8, 15, 7)
	all := g.Neighbors(0)

	top := TopK[int](g, 0, 3)
	require.Len(t, top, 3)
	for _, n := range top {
		assert.Contains(t, all, n)
	}
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Weight, top[i].Weight)
	}
}

func TestTopK_DoesNotMutateGraph(t *testing.T) {
	g := star(t, 7, 9, 8)
	before := g.Neighbors(0)

	_ = TopK[int](g, 0, 2)

	assert.Equal(t, before, g.Neighbors(0))
}

func TestTopK_UnknownAndIsolated(t *testing.T) {
	g := graph.NewSparse[string]()
	require.NoError(t, g.AddNode("lonely", catalog.Movie{ID: 1}))

	assert.Empty(t, TopK[string](g, "lonely", 5))
	assert.Empty(t, TopK[string](g, "missing", 5))
}

func TestAll(t *testing.T) {
	g := star(t, 9, 8)

	got := All[int](g, 1)

	assert.Len(t, got, 3)
	assert.Equal(t, []graph.Neighbor[int]{{1, 9}}, got[0])
	assert.Equal(t, []graph.Neighbor[int]{{0, 9}}, got[1])
	assert.Equal(t, []graph.Neighbor[int]{{0, 8}}, got[2])
}
