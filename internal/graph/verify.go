// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package graph

import (
	"cmp"
	"fmt"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

type directedEdge[K cmp.Ordered] struct {
	from, to K
	weight   int
}

type pairKey[K cmp.Ordered] struct {
	lo, hi K
}

// Verify checks the structural invariants of g and returns an
// *InvariantError describing the first violation, or nil.
func Verify[K cmp.Ordered](g Graph[K]) error {
	entries := 0
	directed := make(map[directedEdge[K]]int)
	seenFrom := make(map[directedEdge[K]]struct{})

	for _, u := range g.Keys() {
		pairs := make(map[pairKey[K]]struct{})
		for _, n := range g.Neighbors(u) {
			entries++
			if n.ID == u {
				return &InvariantError{Kind: "self_loop", Detail: fmt.Sprintf("node %v", u)}
			}
			if n.Weight < 1 {
				return &InvariantError{
					Kind:   "invalid_weight",
					Detail: fmt.Sprintf("edge %v-%v has weight %d", u, n.ID, n.Weight),
				}
			}
			key := pairKey[K]{lo: min(u, n.ID), hi: max(u, n.ID)}
			if _, dup := pairs[key]; dup {
				return &InvariantError{
					Kind:   "duplicate_edge",
					Detail: fmt.Sprintf("edge %v-%v listed twice by %v", key.lo, key.hi, u),
				}
			}
			pairs[key] = struct{}{}
			e := directedEdge[K]{from: u, to: n.ID, weight: n.Weight}
			directed[e]++
			seenFrom[e] = struct{}{}
		}
	}

	for e := range seenFrom {
		back := directedEdge[K]{from: e.to, to: e.from, weight: e.weight}
		if directed[e] != directed[back] {
			return &InvariantError{
				Kind:   "asymmetric_edge",
				Detail: fmt.Sprintf("%v->%v (weight %d) has no matching reverse entry", e.from, e.to, e.weight),
			}
		}
	}

	if entries%2 != 0 {
		return &InvariantError{Kind: "odd_adjacency", Detail: fmt.Sprintf("%d adjacency entries", entries)}
	}
	return nil
}

// NewDenseFrom assembles a dense graph from raw adjacency and records, as
// produced by a decoder. A nil record marks an id without data. The result
// is verified before it is returned; on error no graph is returned.
func NewDenseFrom(adj [][]Neighbor[int], data []*catalog.Movie) (*Dense, error) {
	if len(adj) != len(data) {
		return nil, &InvariantError{
			Kind:   "length_mismatch",
			Detail: fmt.Sprintf("%d adjacency lists for %d records", len(adj), len(data)),
		}
	}
	g := NewDense(len(adj))
	for id, neighbors := range adj {
		for _, n := range neighbors {
			if !g.inRange(n.ID) {
				return nil, fmt.Errorf("node %d neighbor %d: %w (size %d)", id, n.ID, ErrNodeOutOfRange, len(adj))
			}
		}
		g.adj[id] = copyNeighbors(neighbors)
	}
	for id, m := range data {
		if m != nil {
			c := m.Clone()
			g.data[id] = &c
		}
	}
	if err := Verify[int](g); err != nil {
		return nil, err
	}
	return g, nil
}

// NewSparseFrom assembles a sparse graph from raw adjacency and records.
// Ids present in adj without a record remain addressable but report no data.
// The result is verified before it is returned.
func NewSparseFrom[K cmp.Ordered](adj map[K][]Neighbor[K], data map[K]catalog.Movie) (*Sparse[K], error) {
	g := NewSparse[K]()
	for id, neighbors := range adj {
		g.adj[id] = copyNeighbors(neighbors)
	}
	for id, m := range data {
		g.data[id] = m.Clone()
	}
	if err := Verify[K](g); err != nil {
		return nil, err
	}
	return g, nil
}
