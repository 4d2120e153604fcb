// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package builder turns a movie catalog into a similarity graph.
//
// Every unordered pair of records is scored exactly once, in input order
// (i < j). A pair becomes an edge when its score is strictly greater than
// the threshold; the score becomes the edge weight.
//
// With Options.Workers > 1 the pair loop is split by row across an errgroup.
// Each row's edges are collected separately and merged in row order, so the
// resulting adjacency lists are identical to a sequential build.
package builder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/graph"
	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/metrics"
)

var (
	// ErrDuplicateID is returned by BuildSparse when two records share an ID.
	ErrDuplicateID = errors.New("duplicate movie id")

	// ErrInvalidThreshold is returned by New for negative thresholds.
	ErrInvalidThreshold = errors.New("threshold must be non-negative")

	// ErrNilScorer is returned by New when no scorer is supplied.
	ErrNilScorer = errors.New("scorer is required")
)

// Scorer computes the similarity of two records. Implementations must be
// safe for concurrent use when the builder runs with more than one worker.
type Scorer interface {
	Score(a, b *catalog.Movie) int
}

// ScoreFunc adapts a plain function to the Scorer interface.
type ScoreFunc func(a, b *catalog.Movie) int

// Score implements Scorer.
func (f ScoreFunc) Score(a, b *catalog.Movie) int {
	return f(a, b)
}

// Options tunes a Builder.
type Options struct {
	// Workers is the number of goroutines scoring rows. Values below 2
	// select the sequential path.
	Workers int

	// Logger receives build summaries. Defaults to the global logger with
	// component=builder.
	Logger *zerolog.Logger
}

// Stats summarizes one build.
type Stats struct {
	Nodes    int
	Edges    int
	Pairs    int
	Workers  int
	Duration time.Duration
}

// Builder scores catalogs into graphs. It holds no per-build state and may
// be reused.
type Builder struct {
	scorer    Scorer
	threshold int
	workers   int
	log       zerolog.Logger
}

// New creates a Builder. Pairs scoring strictly above threshold are linked.
func New(scorer Scorer, threshold int, opts Options) (*Builder, error) {
	if scorer == nil {
		return nil, ErrNilScorer
	}
	if threshold < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidThreshold, threshold)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	log := logging.WithComponent("builder")
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Builder{
		scorer:    scorer,
		threshold: threshold,
		workers:   workers,
		log:       log,
	}, nil
}

// Threshold returns the edge threshold.
func (b *Builder) Threshold() int {
	return b.threshold
}

// edge links the records at positions a < b.
type edge struct {
	a, b   int
	weight int
}

// BuildDense builds a graph whose node i holds movies[i].
func (b *Builder) BuildDense(ctx context.Context, movies []catalog.Movie) (*graph.Dense, Stats, error) {
	start := time.Now()

	edges, err := b.scoreAll(ctx, movies)
	if err != nil {
		return nil, Stats{}, b.fail(ctx, "dense", err, start)
	}

	g := graph.NewDense(len(movies))
	for i := range movies {
		if err := g.AddNode(i, movies[i]); err != nil {
			return nil, Stats{}, b.fail(ctx, "dense", err, start)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e.a, e.b, e.weight); err != nil {
			return nil, Stats{}, b.fail(ctx, "dense", err, start)
		}
	}

	return g, b.finish(ctx, "dense", g.NumNodes(), g.NumEdges(), len(movies), start), nil
}

// BuildSparse builds a graph keyed by Movie.ID. Duplicate IDs are rejected
// with ErrDuplicateID since they would collapse two records into one node.
func (b *Builder) BuildSparse(ctx context.Context, movies []catalog.Movie) (*graph.Sparse[int], Stats, error) {
	start := time.Now()

	seen := make(map[int]int, len(movies))
	for i := range movies {
		if prev, dup := seen[movies[i].ID]; dup {
			err := fmt.Errorf("%w: %d at positions %d and %d", ErrDuplicateID, movies[i].ID, prev, i)
			return nil, Stats{}, b.fail(ctx, "sparse", err, start)
		}
		seen[movies[i].ID] = i
	}

	edges, err := b.scoreAll(ctx, movies)
	if err != nil {
		return nil, Stats{}, b.fail(ctx, "sparse", err, start)
	}

	g := graph.NewSparse[int]()
	for i := range movies {
		if err := g.AddNode(movies[i].ID, movies[i]); err != nil {
			return nil, Stats{}, b.fail(ctx, "sparse", err, start)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(movies[e.a].ID, movies[e.b].ID, e.weight); err != nil {
			return nil, Stats{}, b.fail(ctx, "sparse", err, start)
		}
	}

	return g, b.finish(ctx, "sparse", g.NumNodes(), g.NumEdges(), len(movies), start), nil
}

// scoreAll returns the edges of the catalog in (i, j) order.
func (b *Builder) scoreAll(ctx context.Context, movies []catalog.Movie) ([]edge, error) {
	n := len(movies)
	rows := make([][]edge, n)

	workers := min(b.workers, n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("build graph at row %d: %w", i, err)
			}
			rows[i] = b.scoreRow(movies, i)
		}
		return flatten(rows), nil
	}

	// Rows are dealt round-robin so that the long early rows spread across
	// workers. Each row slot is written by exactly one goroutine.
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < n; i += workers {
				if err := gctx.Err(); err != nil {
					return fmt.Errorf("build graph at row %d: %w", i, err)
				}
				rows[i] = b.scoreRow(movies, i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return flatten(rows), nil
}

func (b *Builder) scoreRow(movies []catalog.Movie, i int) []edge {
	var row []edge
	for j := i + 1; j < len(movies); j++ {
		if score := b.scorer.Score(&movies[i], &movies[j]); score > b.threshold {
			row = append(row, edge{a: i, b: j, weight: score})
		}
	}
	return row
}

func flatten(rows [][]edge) []edge {
	total := 0
	for _, r := range rows {
		total += len(r)
	}
	out := make([]edge, 0, total)
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func (b *Builder) finish(ctx context.Context, mode string, nodes, edges, n int, start time.Time) Stats {
	stats := Stats{
		Nodes:    nodes,
		Edges:    edges,
		Pairs:    n * (n - 1) / 2,
		Workers:  min(b.workers, max(n, 1)),
		Duration: time.Since(start),
	}

	metrics.RecordGraphBuild(mode, metrics.BuildSuccess, stats.Pairs, stats.Duration)
	metrics.SetGraphSize(stats.Nodes, stats.Edges)

	log := logging.WithContext(ctx, b.log)
	log.Info().
		Str("mode", mode).
		Int("nodes", stats.Nodes).
		Int("edges", stats.Edges).
		Int("pairs", stats.Pairs).
		Int("threshold", b.threshold).
		Int("workers", stats.Workers).
		Dur("duration", stats.Duration).
		Msg("Similarity graph built")

	return stats
}

func (b *Builder) fail(ctx context.Context, mode string, err error, start time.Time) error {
	status := metrics.BuildError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = metrics.BuildCanceled
	}
	metrics.RecordGraphBuild(mode, status, 0, time.Since(start))
	log := logging.WithContext(ctx, b.log)
	log.Warn().Err(err).Str("mode", mode).Str("status", status).Msg("Similarity graph build failed")
	return err
}
