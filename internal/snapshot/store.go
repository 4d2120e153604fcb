// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package snapshot keeps versioned copies of encoded similarity graphs.
//
// A snapshot is the codec document of one build plus metadata (version,
// size, SHA-256 checksum of the uncompressed document). Versions increase
// monotonically per name starting at 1; version 0 in Load means "latest".
//
// Two backends implement Store:
//
//   - FileStore writes {name}_v{n}.json (or .json.gz) next to a
//     {name}_v{n}.meta.json sidecar. The sidecar is written last, so a
//     version only becomes visible once its document is on disk.
//   - BadgerStore writes both records in one BadgerDB transaction under
//     snapshot:{name}:{version} and meta:{name}:{version}.
//
// Loads verify the checksum before returning the document.
package snapshot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

var (
	// ErrNotFound is returned when no snapshot exists for a name/version.
	ErrNotFound = errors.New("snapshot not found")

	// ErrChecksumMismatch is returned when a stored document does not match
	// its recorded checksum.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

	// ErrInvalidName is returned for names that cannot be stored safely.
	ErrInvalidName = errors.New("invalid snapshot name")
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Metadata describes one stored snapshot.
type Metadata struct {
	// ID uniquely identifies the snapshot across names and versions.
	ID string `json:"id"`

	// Name groups versions of the same graph (e.g. "movies").
	Name string `json:"name"`

	// Version is assigned by the store on Save.
	Version int `json:"version"`

	// Mode is the graph addressing mode: "dense" or "sparse".
	Mode string `json:"mode"`

	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
	Threshold int `json:"threshold"`

	// Checksum is the hex SHA-256 of the uncompressed document.
	Checksum string `json:"checksum"`

	// SizeBytes is the stored (possibly compressed) size.
	SizeBytes int64 `json:"size_bytes"`

	Compressed bool      `json:"compressed"`
	SavedAt    time.Time `json:"saved_at"`
}

// Store persists versioned graph documents.
type Store interface {
	// Save stores doc as the next version of name. Caller-provided graph
	// fields of meta (Mode, Nodes, Edges, Threshold) are kept; the rest
	// are filled in by the store.
	Save(ctx context.Context, name string, doc []byte, meta Metadata) (Metadata, error)

	// Load returns the document and metadata of a version; 0 means latest.
	Load(ctx context.Context, name string, version int) ([]byte, Metadata, error)

	// Latest returns the newest version of name.
	Latest(name string) (int, bool)

	// List returns metadata for every stored version, ordered by name and
	// version.
	List(ctx context.Context) ([]Metadata, error)

	// Prune deletes all but the newest keep versions of name.
	Prune(ctx context.Context, name string, keep int) error

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend  string
	Path     string
	Compress bool
}

// Open creates the Store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Path, cfg.Compress)
	case BackendBadger:
		return NewBadgerStore(cfg.Path, cfg.Compress)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\:`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// encodePayload returns the bytes to store for doc.
func encodePayload(doc []byte, compress bool) ([]byte, error) {
	if !compress {
		return doc, nil
	}
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	if _, err := gzw.Write(doc); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}
	return buf.Bytes(), nil
}

// decodePayload reverses encodePayload and verifies the checksum.
func decodePayload(stored []byte, meta *Metadata) ([]byte, error) {
	doc := stored
	if meta.Compressed {
		gzr, err := gzip.NewReader(bytes.NewReader(stored))
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		defer func() { _ = gzr.Close() }()

		doc, err = io.ReadAll(gzr)
		if err != nil {
			return nil, fmt.Errorf("read decompressed snapshot: %w", err)
		}
	}

	if got := checksum(doc); got != meta.Checksum {
		return nil, fmt.Errorf("%w: %s v%d: expected %s, got %s", ErrChecksumMismatch, meta.Name, meta.Version, meta.Checksum, got)
	}
	return doc, nil
}
