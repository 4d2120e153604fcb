// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/tomtom215/cinegraph/internal/api"
	"github.com/tomtom215/cinegraph/internal/codec"
	"github.com/tomtom215/cinegraph/internal/graph"
	"github.com/tomtom215/cinegraph/internal/snapshot"
)

const (
	modeDense  = "dense"
	modeSparse = "sparse"
)

// encodeGraph serializes g with the codec matching mode.
func encodeGraph(mode string, g graph.Graph[int]) ([]byte, error) {
	var buf bytes.Buffer
	switch mode {
	case modeDense:
		dense, ok := g.(*graph.Dense)
		if !ok {
			return nil, fmt.Errorf("dense mode requires a dense graph, got %T", g)
		}
		if err := codec.EncodeDense(&buf, dense); err != nil {
			return nil, err
		}
	case modeSparse:
		if err := codec.EncodeSparse[int](&buf, g, codec.IntKeys); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown graph mode %q", mode)
	}
	return buf.Bytes(), nil
}

// decodeGraph is the inverse of encodeGraph.
func decodeGraph(mode string, doc []byte) (graph.Graph[int], error) {
	switch mode {
	case modeDense:
		return codec.DecodeDense(bytes.NewReader(doc))
	case modeSparse:
		return codec.DecodeSparse[int](bytes.NewReader(doc), codec.IntKeys)
	default:
		return nil, fmt.Errorf("unknown graph mode %q", mode)
	}
}

// loadGraphFile reads a graph document written by `build -out`.
func loadGraphFile(path, mode string) (graph.Graph[int], error) {
	doc, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	g, err := decodeGraph(mode, doc)
	if err != nil {
		return nil, fmt.Errorf("graph file %s: %w", path, err)
	}
	return g, nil
}

// loadSnapshot reads and decodes a stored version; 0 means latest.
func loadSnapshot(ctx context.Context, store snapshot.Store, name string, version int) (graph.Graph[int], snapshot.Metadata, error) {
	doc, meta, err := store.Load(ctx, name, version)
	if err != nil {
		return nil, snapshot.Metadata{}, err
	}
	g, err := decodeGraph(meta.Mode, doc)
	if err != nil {
		return nil, snapshot.Metadata{}, fmt.Errorf("snapshot %s v%d: %w", name, meta.Version, err)
	}
	return g, meta, nil
}

// storeReloader serves the newest snapshot of one name.
type storeReloader struct {
	store   snapshot.Store
	name    string
	handler *api.Handler

	mu      sync.Mutex
	current int
}

func newStoreReloader(store snapshot.Store, name string, handler *api.Handler) *storeReloader {
	return &storeReloader{store: store, name: name, handler: handler}
}

// Reload implements services.Reloader. A store with no snapshot yet is not
// an error.
func (r *storeReloader) Reload(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	latest, ok := r.store.Latest(r.name)
	if !ok || latest == r.current {
		return false, nil
	}

	g, meta, err := loadSnapshot(ctx, r.store, r.name, latest)
	if errors.Is(err, snapshot.ErrNotFound) {
		// Pruned between Latest and Load; the next tick sees the new latest.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	r.handler.SetGraph(g, &meta)
	r.current = meta.Version
	return true, nil
}
