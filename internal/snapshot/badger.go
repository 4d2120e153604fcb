// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/metrics"
)

// Key prefixes for BadgerDB storage
const (
	snapshotKeyPrefix = "snapshot:"
	metaKeyPrefix     = "meta:"
)

// BadgerStore keeps snapshots in a BadgerDB database.
type BadgerStore struct {
	db       *badger.DB
	compress bool
	log      zerolog.Logger

	mu       sync.RWMutex
	versions map[string]int
}

// NewBadgerStore opens a BadgerDB at path. An empty path opens an
// in-memory database.
func NewBadgerStore(path string, compress bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for snapshots: %w", err)
	}

	s := &BadgerStore{
		db:       db,
		compress: compress,
		log:      logging.WithComponent("snapshot").With().Str("backend", BackendBadger).Logger(),
		versions: make(map[string]int),
	}
	if err := s.scan(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scan existing snapshots: %w", err)
	}
	return s, nil
}

func versionKey(prefix, name string, version int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", prefix, name, version))
}

// parseMetaKey splits "meta:movies:0000000003" into ("movies", 3).
func parseMetaKey(key string) (string, int, bool) {
	rest := strings.TrimPrefix(key, metaKeyPrefix)
	idx := strings.LastIndexByte(rest, ':')
	if idx <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(rest[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:idx], version, true
}

func (s *BadgerStore) scan() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			name, version, ok := parseMetaKey(string(it.Item().Key()))
			if !ok {
				continue
			}
			if version > s.versions[name] {
				s.versions[name] = version
			}
		}
		return nil
	})
}

// Save implements Store.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *BadgerStore) Save(ctx context.Context, name string, doc []byte, meta Metadata) (saved Metadata, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotOperation(BackendBadger, "save", int(saved.SizeBytes), time.Since(start), err)
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

	meta.ID = uuid.NewString()
	meta.Name = name
	meta.Version = s.versions[name] + 1
	meta.Checksum = checksum(doc)
	meta.SizeBytes = int64(len(payload))
	meta.Compressed = s.compress
	meta.SavedAt = time.Now().UTC()

	metaData, err := json.Marshal(meta)
	if err != nil {
		return Metadata{}, fmt.Errorf("marshal snapshot metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(versionKey(snapshotKeyPrefix, name, meta.Version), payload); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		if err := txn.Set(versionKey(metaKeyPrefix, name, meta.Version), metaData); err != nil {
			return fmt.Errorf("set snapshot metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return Metadata{}, err
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
func (s *BadgerStore) Load(ctx context.Context, name string, version int) (doc []byte, meta Metadata, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotOperation(BackendBadger, "load", 0, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, Metadata{}, err
	}

	if version == 0 {
		latest, ok := s.Latest(name)
		if !ok {
			return nil, Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		version = latest
	}

	var stored []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey(metaKeyPrefix, name, version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s v%d", ErrNotFound, name, version)
		}
		if err != nil {
			return fmt.Errorf("get snapshot metadata: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return fmt.Errorf("decode snapshot metadata: %w", err)
		}

		item, err = txn.Get(versionKey(snapshotKeyPrefix, name, version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s v%d document", ErrNotFound, name, version)
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		stored, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, Metadata{}, err
	}

	doc, err = decodePayload(stored, &meta)
	if err != nil {
		return nil, Metadata{}, err
	}
	return doc, meta, nil
}

// Latest implements Store.
func (s *BadgerStore) Latest(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// List implements Store.
func (s *BadgerStore) List(ctx context.Context) ([]Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var meta Metadata
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				s.log.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable snapshot metadata")
				continue
			}
			out = append(out, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	sortMetadata(out)
	return out, nil
}

// Prune implements Store.
func (s *BadgerStore) Prune(ctx context.Context, name string, keep int) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotOperation(BackendBadger, "prune", 0, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var versions []int
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaKeyPrefix + name + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if n, v, ok := parseMetaKey(string(it.Item().Key())); ok && n == name {
				versions = append(versions, v)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list snapshot versions: %w", err)
	}

	// Keys are zero-padded, so iteration order is ascending by version.
	if len(versions) <= keep {
		return nil
	}
	stale := versions[:len(versions)-keep]

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, v := range stale {
			if err := txn.Delete(versionKey(metaKeyPrefix, name, v)); err != nil {
				return fmt.Errorf("delete snapshot metadata: %w", err)
			}
			if err := txn.Delete(versionKey(snapshotKeyPrefix, name, v)); err != nil {
				return fmt.Errorf("delete snapshot: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("name", name).Int("removed", len(stale)).Int("kept", keep).Msg("Pruned old snapshots")
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
