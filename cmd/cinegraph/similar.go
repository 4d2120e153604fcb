// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/tomtom215/cinegraph/internal/api"
	"github.com/tomtom215/cinegraph/internal/config"
	"github.com/tomtom215/cinegraph/internal/graph"
	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/ranker"
	"github.com/tomtom215/cinegraph/internal/snapshot"
)

var errUnknownNode = errors.New("movie not in graph")

func runSimilar(ctx context.Context, args []string, stdout io.Writer) error {
	fs, configPath := newFlagSet("similar")
	k := fs.Int("k", 0, "number of similar movies, 1-100 (default build.top_k)")
	version := fs.Int("version", 0, "snapshot version, 0 for latest")
	file := fs.String("file", "", "read a graph document instead of the snapshot store")
	mode := fs.String("mode", "", "graph mode of -file: dense or sparse (default build.mode)")

	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: expected exactly one movie id", errUsage)
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("%w: movie id %q is not an integer", errUsage, fs.Arg(0))
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if set["mode"] {
		cfg.Build.Mode = *mode
	}
	if !set["k"] {
		*k = cfg.Build.TopK
	}
	if *k < 1 || *k > api.MaxK {
		return fmt.Errorf("%w: -k must be between 1 and %d", errUsage, api.MaxK)
	}

	g, meta, err := openGraph(ctx, cfg, *file, *version)
	if err != nil {
		return err
	}
	if meta != nil {
		logging.Debug().Str("name", meta.Name).Int("version", meta.Version).Msg("Loaded snapshot")
	}

	if !g.Has(id) && len(g.Neighbors(id)) == 0 {
		return fmt.Errorf("%w: %d", errUnknownNode, id)
	}
	printSimilar(stdout, g, id, *k)
	return nil
}

// openGraph loads the graph from file when given, otherwise from the
// snapshot store.
func openGraph(ctx context.Context, cfg *config.Config, file string, version int) (graph.Graph[int], *snapshot.Metadata, error) {
	if file != "" {
		g, err := loadGraphFile(file, cfg.Build.Mode)
		return g, nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing snapshot store")
		}
	}()

	g, meta, err := loadSnapshot(ctx, store, cfg.Storage.Name, version)
	if err != nil {
		return nil, nil, err
	}
	return g, &meta, nil
}

// printSimilar writes the top-k neighbors of id as a table.
func printSimilar(w io.Writer, g graph.Graph[int], id, k int) {
	if m, ok := g.NodeData(id); ok {
		if year, ok := m.YearValue(); ok {
			_, _ = fmt.Fprintf(w, "Movie: %s (%d)\n", m.Title, year)
		} else {
			_, _ = fmt.Fprintf(w, "Movie: %s\n", m.Title)
		}
	} else {
		_, _ = fmt.Fprintf(w, "Movie: #%d\n", id)
	}

	top := ranker.TopK(g, id, k)
	if len(top) == 0 {
		_, _ = fmt.Fprintln(w, "  (no similar movies)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  RANK\tID\tTITLE\tWEIGHT")
	for i, n := range top {
		m, _ := g.NodeData(n.ID)
		_, _ = fmt.Fprintf(tw, "  %d\t%d\t%s\t%d\n", i+1, n.ID, m.Title, n.Weight)
	}
	_ = tw.Flush()
}
