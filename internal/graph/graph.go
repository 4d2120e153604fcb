// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package graph implements the undirected, weighted movie similarity graph.
//
// # Addressing Modes
//
// Two backings share the Graph interface:
//
//   - Dense: node ids are the contiguous range 0..N-1, fixed at construction.
//     Adjacency and records live in slices indexed by id.
//   - Sparse: node ids are caller-assigned keys (for example catalog ids).
//     Adjacency and records live in maps and grow on insert.
//
// Query semantics are identical for both.
//
// # Invariants
//
// Every edge is stored twice, once in each endpoint's adjacency list, with
// the same weight. Self-loops are refused. NumEdges is half the number of
// adjacency entries; an odd total means the graph is corrupt and NumEdges
// panics with an *InvariantError. Verify walks the whole graph and reports
// the first violation it finds.
//
// # Thread Safety
//
// Graphs are built once and then read. Mutation is not safe for concurrent
// use; concurrent reads of a fully built graph are.
package graph

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

var (
	// ErrSelfLoop is returned by AddEdge when both endpoints are the same node.
	ErrSelfLoop = errors.New("self-loop edge")

	// ErrNodeOutOfRange is returned by a dense graph for ids outside 0..N-1.
	ErrNodeOutOfRange = errors.New("node id out of range")

	// ErrInvalidWeight is returned by AddEdge for weights below 1.
	ErrInvalidWeight = errors.New("edge weight must be at least 1")

	// ErrInvariant is wrapped by every *InvariantError.
	ErrInvariant = errors.New("graph invariant violated")
)

// Neighbor is one adjacency entry: the node on the other end of an edge and
// the edge weight.
type Neighbor[K cmp.Ordered] struct {
	ID     K
	Weight int
}

// Graph is the movie similarity graph over node ids of type K.
type Graph[K cmp.Ordered] interface {
	// AddNode stores or replaces the record for id. Adjacency is untouched.
	AddNode(id K, movie catalog.Movie) error

	// AddEdge links a and b with the given weight in both directions.
	// Parallel edges are not deduplicated.
	AddEdge(a, b K, weight int) error

	// Neighbors returns a copy of id's adjacency in insertion order.
	// Unknown and isolated nodes yield an empty slice.
	Neighbors(id K) []Neighbor[K]

	// NodeData returns the record for id and whether one is stored.
	NodeData(id K) (catalog.Movie, bool)

	// Has reports whether a record is stored for id.
	Has(id K) bool

	// Nodes returns the ids with stored records in ascending order.
	Nodes() []K

	// Keys returns every addressable id in ascending order, including ids
	// that only appear in adjacency.
	Keys() []K

	// NumNodes returns the number of ids with stored records.
	NumNodes() int

	// NumEdges returns the number of undirected edges.
	NumEdges() int
}

// InvariantError reports a structural defect in a graph.
type InvariantError struct {
	// Kind names the violated invariant (self_loop, duplicate_edge,
	// asymmetric_edge, invalid_weight, odd_adjacency).
	Kind string

	// Detail describes where the violation was found.
	Detail string
}

// Error implements error.
func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrInvariant, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvariant, e.Kind, e.Detail)
}

// Unwrap allows errors.Is(err, ErrInvariant).
func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

// edgeCount converts a total adjacency length into an edge count, panicking
// when the total is odd.
func edgeCount(entries int) int {
	if entries%2 != 0 {
		panic(&InvariantError{
			Kind:   "odd_adjacency",
			Detail: fmt.Sprintf("%d adjacency entries", entries),
		})
	}
	return entries / 2
}

func copyNeighbors[K cmp.Ordered](in []Neighbor[K]) []Neighbor[K] {
	out := make([]Neighbor[K], len(in))
	copy(out, in)
	return out
}
