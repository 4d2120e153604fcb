// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package ranker selects the most similar neighbors of a node.
package ranker

import (
	"cmp"
	"slices"

	"github.com/tomtom215/cinegraph/internal/graph"
)

// DefaultK is the k callers use when none is configured.
const DefaultK = 5

// TopK returns at most k neighbors of id ordered by weight descending.
// Equal weights keep adjacency insertion order. Unknown and isolated nodes
// yield an empty slice, as does a non-positive k.
func TopK[K cmp.Ordered](g graph.Graph[K], id K, k int) []graph.Neighbor[K] {
	if k <= 0 {
		return []graph.Neighbor[K]{}
	}

	neighbors := g.Neighbors(id)
	slices.SortStableFunc(neighbors, func(a, b graph.Neighbor[K]) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k:k]
	}
	return neighbors
}

// All returns TopK for every node with a stored record.
func All[K cmp.Ordered](g graph.Graph[K], k int) map[K][]graph.Neighbor[K] {
	nodes := g.Nodes()
	out := make(map[K][]graph.Neighbor[K], len(nodes))
	for _, id := range nodes {
		out[id] = TopK(g, id, k)
	}
	return out
}
