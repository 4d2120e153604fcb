// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package snapshot

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinegraph/internal/codec"
	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/metrics"
)

const metaSuffix = ".meta.json"

// FileStore keeps snapshots as files in a single directory.
type FileStore struct {
	dir      string
	compress bool
	log      zerolog.Logger

	mu       sync.RWMutex
	versions map[string]int
}

// NewFileStore opens (creating if needed) a snapshot directory and indexes
// the versions already present.
func NewFileStore(dir string, compress bool) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	s := &FileStore{
		dir:      dir,
		compress: compress,
		log:      logging.WithComponent("snapshot").With().Str("backend", BackendFile).Logger(),
		versions: make(map[string]int),
	}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing snapshots: %w", err)
	}
	return s, nil
}

// scan merges the versions on disk into the latest-version index. Caller
// holds mu for writing.
func (s *FileStore) scan() error {
	index, err := s.indexAll()
	if err != nil {
		return err
	}
	for name, versions := range index {
		if len(versions) > 0 {
			s.versions[name] = max(s.versions[name], slices.Max(versions))
		}
	}
	return nil
}

// indexAll lists the committed versions of every name on disk.
func (s *FileStore) indexAll() (map[string][]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}
	out := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metaSuffix) {
			continue
		}
		name, version, ok := parseSnapshotFilename(strings.TrimSuffix(entry.Name(), metaSuffix))
		if !ok {
			continue
		}
		out[name] = append(out[name], version)
	}
	return out, nil
}

// parseSnapshotFilename splits "movies_v12" into ("movies", 12).
func parseSnapshotFilename(base string) (string, int, bool) {
	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version < 1 {
		return "", 0, false
	}
	return base[:idx], version, true
}

func (s *FileStore) basePath(name string, version int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_v%d", name, version))
}

func dataPath(base string, compressed bool) string {
	if compressed {
		return base + ".json.gz"
	}
	return base + ".json"
}

// Save implements Store.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *FileStore) Save(ctx context.Context, name string, doc []byte, meta Metadata) (saved Metadata, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotOperation(BackendFile, "save", int(saved.SizeBytes), time.Since(start), err)
	}()

	if err := validateName(name); err != nil {
		return Metadata{}, err
	}
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}

	payload, err := encodePayload(doc, s.compress)
	if err != nil {
		return Metadata{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another process may have saved since this store was opened.
	if err := s.scan(); err != nil {
		return Metadata{}, err
	}

	meta.ID = uuid.NewString()
	meta.Name = name
	meta.Version = s.versions[name] + 1
	meta.Checksum = checksum(doc)
	meta.SizeBytes = int64(len(payload))
	meta.Compressed = s.compress
	meta.SavedAt = time.Now().UTC()

	base := s.basePath(name, meta.Version)
	if err := codec.WriteFileAtomic(dataPath(base, meta.Compressed), func(w io.Writer) error {
		_, werr := w.Write(payload)
		return werr
	}); err != nil {
		return Metadata{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := codec.WriteFileAtomic(base+metaSuffix, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(meta)
	}); err != nil {
		_ = os.Remove(dataPath(base, meta.Compressed))
		return Metadata{}, fmt.Errorf("write snapshot metadata: %w", err)
	}

	s.versions[name] = meta.Version
	s.log.Debug().
		Str("name", name).
		Int("version", meta.Version).
		Int64("size_bytes", meta.SizeBytes).
		Msg("Snapshot saved")

	return meta, nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, name string, version int) (doc []byte, meta Metadata, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotOperation(BackendFile, "load", 0, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, Metadata{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		latest, ok := s.versions[name]
		if !ok {
			return nil, Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		version = latest
	}

	meta, err = s.readMeta(name, version)
	if err != nil {
		return nil, Metadata{}, err
	}

	stored, err := os.ReadFile(dataPath(s.basePath(name, version), meta.Compressed))
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("read snapshot %s v%d: %w", name, version, err)
	}

	doc, err = decodePayload(stored, &meta)
	if err != nil {
		return nil, Metadata{}, err
	}
	return doc, meta, nil
}

func (s *FileStore) readMeta(name string, version int) (Metadata, error) {
	data, err := os.ReadFile(s.basePath(name, version) + metaSuffix)
	if errors.Is(err, os.ErrNotExist) {
		return Metadata{}, fmt.Errorf("%w: %s v%d", ErrNotFound, name, version)
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("read snapshot metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode snapshot metadata %s v%d: %w", name, version, err)
	}
	return meta, nil
}

// Latest implements Store. It rereads the directory so versions saved by
// another process become visible.
func (s *FileStore) Latest(name string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scan(); err != nil {
		s.log.Warn().Err(err).Str("name", name).Msg("Using cached snapshot index")
	}
	version, ok := s.versions[name]
	return version, ok
}

// List implements Store. Unreadable sidecars are skipped.
func (s *FileStore) List(ctx context.Context) ([]Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.indexAll()
	if err != nil {
		return nil, err
	}

	var out []Metadata
	for name, versions := range index {
		for _, v := range versions {
			meta, err := s.readMeta(name, v)
			if err != nil {
				s.log.Warn().Err(err).Str("name", name).Int("version", v).Msg("Skipping unreadable snapshot metadata")
				continue
			}
			out = append(out, meta)
		}
	}
	sortMetadata(out)
	return out, nil
}

// Prune implements Store.
func (s *FileStore) Prune(ctx context.Context, name string, keep int) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotOperation(BackendFile, "prune", 0, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.indexAll()
	if err != nil {
		return err
	}
	versions := index[name]
	slices.SortFunc(versions, func(a, b int) int { return cmp.Compare(b, a) })

	removed := 0
	for _, v := range versions[min(keep, len(versions)):] {
		base := s.basePath(name, v)
		// Sidecar first so a half-deleted version is never listed.
		if err := os.Remove(base + metaSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("prune snapshot %s v%d: %w", name, v, err)
		}
		for _, compressed := range []bool{false, true} {
			if err := os.Remove(dataPath(base, compressed)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("prune snapshot %s v%d: %w", name, v, err)
			}
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Str("name", name).Int("removed", removed).Int("kept", keep).Msg("Pruned old snapshots")
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

func sortMetadata(m []Metadata) {
	slices.SortFunc(m, func(a, b Metadata) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Version, b.Version)
	})
}
