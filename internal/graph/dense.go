// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package graph

import (
	"fmt"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

// Dense is a graph over the contiguous ids 0..N-1.
type Dense struct {
	adj  [][]Neighbor[int]
	data []*catalog.Movie
}

// NewDense creates an empty graph pre-sized for n nodes.
func NewDense(n int) *Dense {
	if n < 0 {
		n = 0
	}
	return &Dense{
		adj:  make([][]Neighbor[int], n),
		data: make([]*catalog.Movie, n),
	}
}

// Size returns the number of addressable ids (N).
func (g *Dense) Size() int {
	return len(g.data)
}

func (g *Dense) inRange(id int) bool {
	return id >= 0 && id < len(g.data)
}

// AddNode implements Graph.
func (g *Dense) AddNode(id int, movie catalog.Movie) error {
	if !g.inRange(id) {
		return fmt.Errorf("add node %d: %w (size %d)", id, ErrNodeOutOfRange, len(g.data))
	}
	m := movie.Clone()
	g.data[id] = &m
	return nil
}

// AddEdge implements Graph.
func (g *Dense) AddEdge(a, b, weight int) error {
	if a == b {
		return fmt.Errorf("add edge %d-%d: %w", a, b, ErrSelfLoop)
	}
	if !g.inRange(a) || !g.inRange(b) {
		return fmt.Errorf("add edge %d-%d: %w (size %d)", a, b, ErrNodeOutOfRange, len(g.data))
	}
	if weight < 1 {
		return fmt.Errorf("add edge %d-%d: %w, got %d", a, b, ErrInvalidWeight, weight)
	}
	g.adj[a] = append(g.adj[a], Neighbor[int]{ID: b, Weight: weight})
	g.adj[b] = append(g.adj[b], Neighbor[int]{ID: a, Weight: weight})
	return nil
}

// Neighbors implements Graph.
func (g *Dense) Neighbors(id int) []Neighbor[int] {
	if !g.inRange(id) {
		return []Neighbor[int]{}
	}
	return copyNeighbors(g.adj[id])
}

// NodeData implements Graph.
func (g *Dense) NodeData(id int) (catalog.Movie, bool) {
	if !g.inRange(id) || g.data[id] == nil {
		return catalog.Movie{}, false
	}
	return g.data[id].Clone(), true
}

// Has implements Graph.
func (g *Dense) Has(id int) bool {
	return g.inRange(id) && g.data[id] != nil
}

// Nodes implements Graph.
func (g *Dense) Nodes() []int {
	ids := make([]int, 0, len(g.data))
	for i, m := range g.data {
		if m != nil {
			ids = append(ids, i)
		}
	}
	return ids
}

// Keys implements Graph.
func (g *Dense) Keys() []int {
	ids := make([]int, len(g.data))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// NumNodes implements Graph.
func (g *Dense) NumNodes() int {
	n := 0
	for _, m := range g.data {
		if m != nil {
			n++
		}
	}
	return n
}

// NumEdges implements Graph.
func (g *Dense) NumEdges() int {
	total := 0
	for _, neighbors := range g.adj {
		total += len(neighbors)
	}
	return edgeCount(total)
}
