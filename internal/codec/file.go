// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package codec

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tomtom215/cinegraph/internal/graph"
)

// SaveDenseFile atomically replaces path with the encoding of g.
func SaveDenseFile(path string, g *graph.Dense) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeDense(w, g)
	})
}

// LoadDenseFile reads a positional document from path.
func LoadDenseFile(path string) (*graph.Dense, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodeDense(bufio.NewReader(f))
}

// SaveSparseFile atomically replaces path with the encoding of g.
func SaveSparseFile[K cmp.Ordered](path string, g graph.Graph[K], keys KeyCodec[K]) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeSparse(w, g, keys)
	})
}

// LoadSparseFile reads a keyed document from path.
func LoadSparseFile[K cmp.Ordered](path string, keys KeyCodec[K]) (*graph.Sparse[K], error) {
	f, err := os.Open(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodeSparse(bufio.NewReader(f), keys)
}

// WriteFileAtomic calls write with a buffered temporary file in the target
// directory, syncs it and renames it over path. On failure path is left
// untouched and the temporary file is removed.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush graph file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync graph file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close graph file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace graph file: %w", err)
	}
	return nil
}
