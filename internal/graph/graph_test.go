// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

func movie(id int, title string) catalog.Movie {
	return catalog.Movie{ID: id, Title: title, Genres: []string{"Drama"}}
}

func TestDense_AddNodeAndNodeData(t *testing.T) {
	g := NewDense(3)
	require.NoError(t, g.AddNode(1, movie(10, "Heat")))

	got, ok := g.NodeData(1)
	require.True(t, ok)
	assert.Equal(t, "Heat", got.Title)
	assert.True(t, g.Has(1))

	_, ok = g.NodeData(0)
	assert.False(t, ok, "id in range without data")
	_, ok = g.NodeData(7)
	assert.False(t, ok, "id out of range")
	_, ok = g.NodeData(-1)
	assert.False(t, ok)

	assert.Equal(t, 1, g.NumNodes())
	assert.Equal(t, []int{1}, g.Nodes())
	assert.Equal(t, []int{0, 1, 2}, g.Keys())
}

func TestDense_AddNodeOverwrites(t *testing.T) {
	g := NewDense(1)
	require.NoError(t, g.AddNode(0, movie(1, "First")))
	require.NoError(t, g.AddNode(0, movie(1, "Second")))

	got, ok := g.NodeData(0)
	require.True(t, ok)
	assert.Equal(t, "Second", got.Title)
	assert.Equal(t, 1, g.NumNodes())
}

func TestDense_AddNodeOutOfRange(t *testing.T) {
	g := NewDense(2)
	err := g.AddNode(2, movie(1, "x"))
	assert.ErrorIs(t, err, ErrNodeOutOfRange)
}

func TestDense_AddEdge(t *testing.T) {
	g := NewDense(3)
	require.NoError(t, g.AddEdge(0, 1, 8))

	assert.Equal(t, []Neighbor[int]{{ID: 1, Weight: 8}}, g.Neighbors(0))
	assert.Equal(t, []Neighbor[int]{{ID: 0, Weight: 8}}, g.Neighbors(1))
	assert.Empty(t, g.Neighbors(2))
	assert.NotNil(t, g.Neighbors(2))
	assert.Empty(t, g.Neighbors(99))
	assert.Equal(t, 1, g.NumEdges())
}

func TestDense_AddEdgeErrors(t *testing.T) {
	tests := []struct {
		name    string
		a, b, w int
		want    error
	}{
		{"self loop", 1, 1, 5, ErrSelfLoop},
		{"out of range", 0, 3, 5, ErrNodeOutOfRange},
		{"negative id", -1, 0, 5, ErrNodeOutOfRange},
		{"zero weight", 0, 1, 0, ErrInvalidWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewDense(3)
			err := g.AddEdge(tt.a, tt.b, tt.w)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, g.NumEdges(), "failed insert must not change the graph")
		})
	}
}

func TestDense_NeighborsReturnsCopy(t *testing.T) {
	g := NewDense(2)
	require.NoError(t, g.AddEdge(0, 1, 9))

	n := g.Neighbors(0)
	n[0].Weight = 100

	assert.Equal(t, 9, g.Neighbors(0)[0].Weight)
}

func TestDense_NodeDataReturnsCopy(t *testing.T) {
	g := NewDense(1)
	m := catalog.Movie{ID: 1, Title: "A", Cast: []string{"x"}}
	require.NoError(t, g.AddNode(0, m))

	m.Cast[0] = "mutated"
	got, _ := g.NodeData(0)
	assert.Equal(t, []string{"x"}, got.Cast)

	got.Cast[0] = "mutated again"
	again, _ := g.NodeData(0)
	assert.Equal(t, []string{"x"}, again.Cast)
}

func TestDense_EdgeCountInvariant(t *testing.T) {
	g := NewDense(5)
	edges := [][3]int{{0, 1, 7}, {1, 2, 8}, {2, 3, 9}, {0, 4, 10}, {3, 4, 7}}
	for i, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1], e[2]))

		total := 0
		for _, id := range g.Keys() {
			total += len(g.Neighbors(id))
		}
		assert.Equal(t, 2*(i+1), total)
		assert.Equal(t, i+1, g.NumEdges())
	}
	assert.NoError(t, Verify[int](g))
}

func TestDense_NumEdgesPanicsOnOddSum(t *testing.T) {
	g := NewDense(2)
	g.adj[0] = append(g.adj[0], Neighbor[int]{ID: 1, Weight: 3})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrInvariant)
	}()
	g.NumEdges()
}

func TestDense_ParallelEdgesNotDeduplicated(t *testing.T) {
	g := NewDense(2)
	require.NoError(t, g.AddEdge(0, 1, 8))
	require.NoError(t, g.AddEdge(0, 1, 8))

	assert.Len(t, g.Neighbors(0), 2)
	assert.Equal(t, 2, g.NumEdges())
}

func TestSparse_Basics(t *testing.T) {
	g := NewSparse[int]()
	require.NoError(t, g.AddNode(42, movie(42, "Alien")))
	require.NoError(t, g.AddNode(7, movie(7, "Aliens")))
	require.NoError(t, g.AddEdge(42, 7, 9))

	assert.Equal(t, []int{7, 42}, g.Nodes())
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, 1, g.NumEdges())
	assert.Equal(t, []Neighbor[int]{{ID: 7, Weight: 9}}, g.Neighbors(42))

	_, ok := g.NodeData(1000)
	assert.False(t, ok)
	assert.Empty(t, g.Neighbors(1000))
	assert.False(t, g.Has(1000))
}

func TestSparse_EdgeWithoutRecords(t *testing.T) {
	g := NewSparse[string]()
	require.NoError(t, g.AddEdge("tt01", "tt02", 7))

	assert.Equal(t, 0, g.NumNodes())
	assert.Empty(t, g.Nodes())
	assert.Equal(t, []string{"tt01", "tt02"}, g.Keys())
	assert.Equal(t, 1, g.NumEdges())
}

func TestSparse_AddEdgeErrors(t *testing.T) {
	g := NewSparse[int]()
	assert.ErrorIs(t, g.AddEdge(3, 3, 8), ErrSelfLoop)
	assert.ErrorIs(t, g.AddEdge(3, 4, -2), ErrInvalidWeight)
	assert.Equal(t, 0, g.NumEdges())
	assert.Empty(t, g.Keys())
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		adj  map[int][]Neighbor[int]
		kind string
	}{
		{
			name: "valid",
			adj: map[int][]Neighbor[int]{
				1: {{ID: 2, Weight: 7}},
				2: {{ID: 1, Weight: 7}},
			},
		},
		{
			name: "self loop",
			adj:  map[int][]Neighbor[int]{1: {{ID: 1, Weight: 7}}},
			kind: "self_loop",
		},
		{
			name: "asymmetric",
			adj:  map[int][]Neighbor[int]{1: {{ID: 2, Weight: 7}}, 2: {}},
			kind: "asymmetric_edge",
		},
		{
			name: "weight mismatch",
			adj: map[int][]Neighbor[int]{
				1: {{ID: 2, Weight: 7}},
				2: {{ID: 1, Weight: 8}},
			},
			kind: "asymmetric_edge",
		},
		{
			name: "duplicate pair",
			adj: map[int][]Neighbor[int]{
				1: {{ID: 2, Weight: 7}, {ID: 2, Weight: 7}},
				2: {{ID: 1, Weight: 7}, {ID: 1, Weight: 7}},
			},
			kind: "duplicate_edge",
		},
		{
			name: "non-positive weight",
			adj: map[int][]Neighbor[int]{
				1: {{ID: 2, Weight: 0}},
				2: {{ID: 1, Weight: 0}},
			},
			kind: "invalid_weight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewSparse[int]()
			g.adj = tt.adj

			err := Verify[int](g)
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvariant)
			var ie *InvariantError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.kind, ie.Kind)
		})
	}
}

func TestNewDenseFrom(t *testing.T) {
	m0 := movie(1, "A")
	m2 := movie(3, "C")
	adj := [][]Neighbor[int]{
		{{ID: 1, Weight: 8}},
		{{ID: 0, Weight: 8}, {ID: 2, Weight: 7}},
		{{ID: 1, Weight: 7}},
	}

	g, err := NewDenseFrom(adj, []*catalog.Movie{&m0, nil, &m2})
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumEdges())
	assert.Equal(t, []int{0, 2}, g.Nodes())
	assert.Equal(t, 3, g.Size())

	adj[1][0].Weight = 99
	assert.Equal(t, 8, g.Neighbors(1)[0].Weight, "input slices must not be retained")
}

func TestNewDenseFrom_Rejects(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		_, err := NewDenseFrom(make([][]Neighbor[int], 2), make([]*catalog.Movie, 3))
		assert.ErrorIs(t, err, ErrInvariant)
	})
	t.Run("neighbor out of range", func(t *testing.T) {
		adj := [][]Neighbor[int]{{{ID: 5, Weight: 7}}}
		_, err := NewDenseFrom(adj, make([]*catalog.Movie, 1))
		assert.ErrorIs(t, err, ErrNodeOutOfRange)
	})
	t.Run("asymmetric", func(t *testing.T) {
		adj := [][]Neighbor[int]{{{ID: 1, Weight: 7}}, {}}
		g, err := NewDenseFrom(adj, make([]*catalog.Movie, 2))
		assert.ErrorIs(t, err, ErrInvariant)
		assert.Nil(t, g)
	})
}

func TestNewSparseFrom(t *testing.T) {
	adj := map[string][]Neighbor[string]{
		"a": {{ID: "b", Weight: 9}},
		"b": {{ID: "a", Weight: 9}},
		"c": {},
	}
	data := map[string]catalog.Movie{"a": movie(1, "A"), "b": movie(2, "B")}

	g, err := NewSparseFrom(adj, data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
	assert.Equal(t, []string{"a", "b", "c"}, g.Keys())
	assert.Equal(t, 1, g.NumEdges())
	assert.False(t, g.Has("c"))
}

func TestInvariantError_Message(t *testing.T) {
	err := &InvariantError{Kind: "self_loop", Detail: "node 3"}
	assert.Equal(t, "graph invariant violated: self_loop: node 3", err.Error())
	assert.Equal(t, "graph invariant violated: odd_adjacency", (&InvariantError{Kind: "odd_adjacency"}).Error())
}
