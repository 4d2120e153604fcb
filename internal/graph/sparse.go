// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package graph

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

// Sparse is a graph keyed by caller-assigned ids. It grows on insert.
type Sparse[K cmp.Ordered] struct {
	adj  map[K][]Neighbor[K]
	data map[K]catalog.Movie
}

// NewSparse creates an empty sparse graph.
func NewSparse[K cmp.Ordered]() *Sparse[K] {
	return &Sparse[K]{
		adj:  make(map[K][]Neighbor[K]),
		data: make(map[K]catalog.Movie),
	}
}

// AddNode implements Graph.
func (g *Sparse[K]) AddNode(id K, movie catalog.Movie) error {
	g.data[id] = movie.Clone()
	return nil
}

// AddEdge implements Graph.
func (g *Sparse[K]) AddEdge(a, b K, weight int) error {
	if a == b {
		return fmt.Errorf("add edge %v-%v: %w", a, b, ErrSelfLoop)
	}
	if weight < 1 {
		return fmt.Errorf("add edge %v-%v: %w, got %d", a, b, ErrInvalidWeight, weight)
	}
	g.adj[a] = append(g.adj[a], Neighbor[K]{ID: b, Weight: weight})
	g.adj[b] = append(g.adj[b], Neighbor[K]{ID: a, Weight: weight})
	return nil
}

// Neighbors implements Graph.
func (g *Sparse[K]) Neighbors(id K) []Neighbor[K] {
	return copyNeighbors(g.adj[id])
}

// NodeData implements Graph.
func (g *Sparse[K]) NodeData(id K) (catalog.Movie, bool) {
	m, ok := g.data[id]
	if !ok {
		return catalog.Movie{}, false
	}
	return m.Clone(), true
}

// Has implements Graph.
func (g *Sparse[K]) Has(id K) bool {
	_, ok := g.data[id]
	return ok
}

// Nodes implements Graph.
func (g *Sparse[K]) Nodes() []K {
	return slices.Sorted(maps.Keys(g.data))
}

// Keys implements Graph.
func (g *Sparse[K]) Keys() []K {
	seen := make(map[K]struct{}, len(g.adj)+len(g.data))
	for id := range g.adj {
		seen[id] = struct{}{}
	}
	for id := range g.data {
		seen[id] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// NumNodes implements Graph.
func (g *Sparse[K]) NumNodes() int {
	return len(g.data)
}

// NumEdges implements Graph.
func (g *Sparse[K]) NumEdges() int {
	total := 0
	for _, neighbors := range g.adj {
		total += len(neighbors)
	}
	return edgeCount(total)
}
