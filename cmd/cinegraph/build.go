// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/tomtom215/cinegraph/internal/builder"
	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/codec"
	"github.com/tomtom215/cinegraph/internal/config"
	"github.com/tomtom215/cinegraph/internal/graph"
	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/ranker"
	"github.com/tomtom215/cinegraph/internal/similarity"
	"github.com/tomtom215/cinegraph/internal/snapshot"
)

// previewCount is the number of nodes build prints neighbors for.
const previewCount = 3

func runBuild(ctx context.Context, args []string, stdout io.Writer) error {
	fs, configPath := newFlagSet("build")
	catalogPath := fs.String("catalog", "", "catalog JSON file (default catalog.path)")
	threshold := fs.Int("threshold", 0, "link pairs scoring above this (default build.threshold)")
	workers := fs.Int("workers", 0, "scoring goroutines, 0 for one per CPU (default build.workers)")
	mode := fs.String("mode", "", "dense or sparse (default build.mode)")
	name := fs.String("name", "", "snapshot name (default storage.name)")
	out := fs.String("out", "", "write the graph document to this file instead of the snapshot store")
	quiet := fs.Bool("quiet", false, "do not print sample neighbors")

	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if set["catalog"] {
		cfg.Catalog.Path = *catalogPath
	}
	if set["threshold"] {
		cfg.Build.Threshold = *threshold
	}
	if set["workers"] {
		cfg.Build.Workers = *workers
	}
	if set["mode"] {
		cfg.Build.Mode = *mode
	}
	if set["name"] {
		cfg.Storage.Name = *name
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	ctx = logging.ContextWithBuildID(ctx, logging.GenerateBuildID())
	logging.Ctx(ctx).Info().
		Str("catalog", cfg.Catalog.Path).
		Str("mode", cfg.Build.Mode).
		Int("threshold", cfg.Build.Threshold).
		Msg("Starting graph build")

	movies, err := catalog.FileSource{Path: cfg.Catalog.Path}.Movies(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Loaded %d movies from %s\n", len(movies), cfg.Catalog.Path)

	g, stats, err := buildGraph(ctx, cfg, movies)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Graph built: %d nodes, %d edges (%d pairs scored in %s)\n",
		stats.Nodes, stats.Edges, stats.Pairs, stats.Duration.Round(time.Millisecond))

	if !*quiet {
		preview(stdout, g, movies, cfg.Build.Mode)
	}

	doc, err := encodeGraph(cfg.Build.Mode, g)
	if err != nil {
		return err
	}

	if *out != "" {
		err := codec.WriteFileAtomic(*out, func(w io.Writer) error {
			_, err := w.Write(doc)
			return err
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "Graph written to %s\n", *out)
		return nil
	}

	meta, err := saveSnapshot(ctx, cfg, doc, snapshot.Metadata{
		Mode:      cfg.Build.Mode,
		Nodes:     stats.Nodes,
		Edges:     stats.Edges,
		Threshold: cfg.Build.Threshold,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Saved snapshot %s v%d (%s, %d bytes)\n", meta.Name, meta.Version, meta.ID, meta.SizeBytes)
	return nil
}

// buildGraph scores movies with the configured weights.
func buildGraph(ctx context.Context, cfg *config.Config, movies []catalog.Movie) (graph.Graph[int], builder.Stats, error) {
	scorer, err := similarity.NewScorer(cfg.Similarity.ScorerConfig())
	if err != nil {
		return nil, builder.Stats{}, err
	}

	workers := cfg.Build.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	b, err := builder.New(scorer, cfg.Build.Threshold, builder.Options{Workers: workers})
	if err != nil {
		return nil, builder.Stats{}, err
	}

	if cfg.Build.Mode == modeSparse {
		g, stats, err := b.BuildSparse(ctx, movies)
		if err != nil {
			return nil, stats, err
		}
		return g, stats, nil
	}
	g, stats, err := b.BuildDense(ctx, movies)
	if err != nil {
		return nil, stats, err
	}
	return g, stats, nil
}

// saveSnapshot stores doc as the next version and prunes old ones. A prune
// failure is logged; the new version is already committed.
func saveSnapshot(ctx context.Context, cfg *config.Config, doc []byte, meta snapshot.Metadata) (snapshot.Metadata, error) {
	store, err := openStore(cfg)
	if err != nil {
		return snapshot.Metadata{}, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Error closing snapshot store")
		}
	}()

	saved, err := store.Save(ctx, cfg.Storage.Name, doc, meta)
	if err != nil {
		return snapshot.Metadata{}, err
	}
	if err := store.Prune(ctx, cfg.Storage.Name, cfg.Storage.KeepVersions); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("name", cfg.Storage.Name).Msg("Failed to prune old snapshots")
	}
	return saved, nil
}

func openStore(cfg *config.Config) (snapshot.Store, error) {
	return snapshot.Open(snapshot.Config{
		Backend:  cfg.Storage.Backend,
		Path:     cfg.Storage.Path,
		Compress: cfg.Storage.Compress,
	})
}

// preview prints the top neighbors of the first few catalog movies.
func preview(w io.Writer, g graph.Graph[int], movies []catalog.Movie, mode string) {
	for i, m := range movies {
		if i == previewCount {
			break
		}
		id := i
		if mode == modeSparse {
			id = m.ID
		}
		_, _ = fmt.Fprintln(w)
		printSimilar(w, g, id, ranker.DefaultK)
	}
}
