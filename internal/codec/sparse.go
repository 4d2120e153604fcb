// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package codec

import (
	"cmp"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/graph"
)

type sparseDocument[K cmp.Ordered] struct {
	AdjList   map[string][]pair[K]      `json:"adj_list"`
	NodesData map[string]*catalog.Movie `json:"nodes_data"`
}

// EncodeSparse writes g as a keyed document. Every addressable id gets an
// adj_list entry and a nodes_data entry (null when it has no record).
func EncodeSparse[K cmp.Ordered](w io.Writer, g graph.Graph[K], keys KeyCodec[K]) error {
	ids := g.Keys()
	doc := sparseDocument[K]{
		AdjList:   make(map[string][]pair[K], len(ids)),
		NodesData: make(map[string]*catalog.Movie, len(ids)),
	}
	for _, id := range ids {
		key := keys.Format(id)
		if _, dup := doc.AdjList[key]; dup {
			return fmt.Errorf("encode sparse graph: ids collide on key %q", key)
		}
		doc.AdjList[key] = toPairs(g.Neighbors(id))
		if m, ok := g.NodeData(id); ok {
			doc.NodesData[key] = &m
		} else {
			doc.NodesData[key] = nil
		}
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode sparse graph: %w", err)
	}
	return nil
}

// DecodeSparse reads a keyed document, parsing keys with keys.
func DecodeSparse[K cmp.Ordered](r io.Reader, keys KeyCodec[K]) (*graph.Sparse[K], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sparse graph: %w", err)
	}

	rawAdj, rawNodes, err := splitDocument(data)
	if err != nil {
		return nil, err
	}

	var doc sparseDocument[K]
	if err := json.Unmarshal(rawAdj, &doc.AdjList); err != nil {
		return nil, malformed(KeyAdjList, err)
	}
	if err := json.Unmarshal(rawNodes, &doc.NodesData); err != nil {
		return nil, malformed(KeyNodesData, err)
	}

	adj := make(map[K][]graph.Neighbor[K], len(doc.AdjList))
	for key, pairs := range doc.AdjList {
		id, err := keys.Parse(key)
		if err != nil {
			return nil, malformed(fmt.Sprintf("%s[%q]", KeyAdjList, key), err)
		}
		adj[id] = toNeighbors(pairs)
	}

	records := make(map[K]catalog.Movie, len(doc.NodesData))
	for key, m := range doc.NodesData {
		id, err := keys.Parse(key)
		if err != nil {
			return nil, malformed(fmt.Sprintf("%s[%q]", KeyNodesData, key), err)
		}
		if m == nil {
			if _, ok := adj[id]; !ok {
				adj[id] = nil
			}
			continue
		}
		records[id] = *m
	}

	g, err := graph.NewSparseFrom(adj, records)
	if err != nil {
		return nil, malformed(KeyAdjList, err)
	}
	return g, nil
}
