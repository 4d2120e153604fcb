// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// ErrEmptyCatalog is returned when a catalog document contains no bytes.
var ErrEmptyCatalog = errors.New("empty catalog data")

// Source supplies catalog records to the graph builder.
// A remote ingestion client (TMDB, Plex, ...) implements this interface;
// FileSource reads a catalog previously written to disk.
type Source interface {
	Movies(ctx context.Context) ([]Movie, error)
}

// FileSource reads a JSON array of movies from Path.
type FileSource struct {
	Path string
}

// Movies implements Source.
func (s FileSource) Movies(ctx context.Context) ([]Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(s.Path)
}

// LoadFile reads a JSON catalog file (an array of movie records).
func LoadFile(path string) ([]Movie, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	movies, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return movies, nil
}

// Decode parses a JSON array of movie records.
func Decode(r io.Reader) ([]Movie, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyCatalog
	}

	var movies []Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	return movies, nil
}
