// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package codec

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/graph"
)

type denseDocument struct {
	AdjList   [][]pair[int]     `json:"adj_list"`
	NodesData []*catalog.Movie `json:"nodes_data"`
}

// EncodeDense writes g as a positional document.
func EncodeDense(w io.Writer, g *graph.Dense) error {
	n := g.Size()
	doc := denseDocument{
		AdjList:   make([][]pair[int], n),
		NodesData: make([]*catalog.Movie, n),
	}
	for id := 0; id < n; id++ {
		doc.AdjList[id] = toPairs(g.Neighbors(id))
		if m, ok := g.NodeData(id); ok {
			doc.NodesData[id] = &m
		}
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode dense graph: %w", err)
	}
	return nil
}

// DecodeDense reads a positional document.
func DecodeDense(r io.Reader) (*graph.Dense, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dense graph: %w", err)
	}

	rawAdj, rawNodes, err := splitDocument(data)
	if err != nil {
		return nil, err
	}

	var adj [][]pair[int]
	if err := json.Unmarshal(rawAdj, &adj); err != nil {
		return nil, malformed(KeyAdjList, err)
	}
	var nodes []*catalog.Movie
	if err := json.Unmarshal(rawNodes, &nodes); err != nil {
		return nil, malformed(KeyNodesData, err)
	}
	if len(adj) != len(nodes) {
		return nil, malformed("", fmt.Errorf("%s has %d entries but %s has %d", KeyAdjList, len(adj), KeyNodesData, len(nodes)))
	}

	lists := make([][]graph.Neighbor[int], len(adj))
	for i, pairs := range adj {
		lists[i] = toNeighbors(pairs)
	}

	g, err := graph.NewDenseFrom(lists, nodes)
	if err != nil {
		return nil, malformed(KeyAdjList, err)
	}
	return g, nil
}
