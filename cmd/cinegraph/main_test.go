// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cinegraph/internal/api"
)

const testCatalog = `[
  {"id": 10, "title": "Alpha", "year": 2000, "rating": 7.5, "genres": ["Drama"], "director": "Ann Lee", "cast": ["A", "B"]},
  {"id": 20, "title": "Beta", "year": 2002, "rating": 7.0, "genres": ["Drama"], "director": "Bo Kim", "cast": ["C"]},
  {"id": 30, "title": "Gamma", "year": 1950, "rating": 3.0, "genres": ["Western"], "director": "Cy Day", "cast": ["D"]}
]`

// setupWorkspace writes a catalog and a config file pointing the snapshot
// store into a temp dir, and returns the config path.
func setupWorkspace(t *testing.T, mode string) (configPath, dir string) {
	t.Helper()
	dir = t.TempDir()

	catalogPath := filepath.Join(dir, "movies.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o600))

	configPath = filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`catalog:
  path: %s
build:
  mode: %s
  workers: 2
storage:
  backend: file
  path: %s
  name: films
logging:
  level: error
`, catalogPath, mode, filepath.Join(dir, "snapshots"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return configPath, dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage: cinegraph <command>")
	for _, cmd := range commands {
		assert.Contains(t, stderr, cmd.name)
	}

	code, _, _ = runCLI(t, "help")
	assert.Equal(t, 0, code)
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestRun_UsageErrors(t *testing.T) {
	configPath, _ := setupWorkspace(t, modeSparse)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"build", "-nope"}, "flag provided but not defined"},
		{"build extra args", []string{"build", "-config", configPath, "extra"}, "unexpected arguments"},
		{"build bad mode", []string{"build", "-config", configPath, "-mode", "tree"}, "usage error"},
		{"similar missing id", []string{"similar", "-config", configPath}, "exactly one movie id"},
		{"similar bad id", []string{"similar", "-config", configPath, "ten"}, "not an integer"},
		{"similar k too large", []string{"similar", "-config", configPath, "-k", "101", "10"}, "-k must be between 1 and 100"},
		{"similar k zero", []string{"similar", "-config", configPath, "-k", "0", "10"}, "-k must be between"},
		{"snapshots extra args", []string{"snapshots", "-config", configPath, "x"}, "unexpected arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestRun_FlagHelp(t *testing.T) {
	code, _, _ := runCLI(t, "similar", "-h")
	assert.Equal(t, 0, code)
}

func TestBuildSimilarSnapshots_Sparse(t *testing.T) {
	configPath, _ := setupWorkspace(t, modeSparse)

	code, out, stderr := runCLI(t, "build", "-config", configPath)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Loaded 3 movies")
	assert.Contains(t, out, "Graph built: 3 nodes, 1 edges")
	assert.Contains(t, out, "Movie: Alpha (2000)")
	assert.Contains(t, out, "Saved snapshot films v1")

	code, out, stderr = runCLI(t, "similar", "-config", configPath, "10")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "Movie: Alpha (2000)")
	assert.Contains(t, out, "Beta")
	assert.NotContains(t, out, "Gamma")

	code, out, _ = runCLI(t, "similar", "-config", configPath, "30")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "(no similar movies)")

	// A second build becomes v2.
	code, _, stderr = runCLI(t, "build", "-config", configPath, "-quiet")
	require.Equal(t, 0, code, stderr)

	code, out, stderr = runCLI(t, "snapshots", "-config", configPath)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "films")
	assert.Contains(t, out, "sparse")

	code, _, _ = runCLI(t, "similar", "-config", configPath, "-version", "1", "20")
	assert.Equal(t, 0, code)
}

func TestBuild_DenseToFile(t *testing.T) {
	configPath, dir := setupWorkspace(t, modeDense)
	out := filepath.Join(dir, "graph.json")

	code, stdout, stderr := runCLI(t, "build", "-config", configPath, "-quiet", "-out", out, "-threshold", "20")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "0 edges")
	assert.FileExists(t, out)

	code, stdout, _ = runCLI(t, "similar", "-config", configPath, "-file", out, "0")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Movie: Alpha")
	assert.Contains(t, stdout, "(no similar movies)")

	// No snapshot was written.
	code, stdout, _ = runCLI(t, "snapshots", "-config", configPath)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "No snapshots stored.")
}

func TestSimilar_UnknownNode(t *testing.T) {
	configPath, _ := setupWorkspace(t, modeSparse)
	code, _, _ := runCLI(t, "build", "-config", configPath, "-quiet")
	require.Equal(t, 0, code)

	code, _, _ = runCLI(t, "similar", "-config", configPath, "99")
	assert.Equal(t, 1, code)
}

func TestSimilar_NoSnapshot(t *testing.T) {
	configPath, _ := setupWorkspace(t, modeSparse)
	code, _, _ := runCLI(t, "similar", "-config", configPath, "10")
	assert.Equal(t, 1, code)
}

func TestStoreReloader(t *testing.T) {
	configPath, _ := setupWorkspace(t, modeSparse)
	cfg, err := loadConfig(configPath)
	require.NoError(t, err)

	store, err := openStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	handler := api.NewHandler(nil, 5)
	reloader := newStoreReloader(store, cfg.Storage.Name, handler)
	ctx := context.Background()

	// Empty store: nothing to load and no error.
	loaded, err := reloader.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Nil(t, handler.State())

	code, _, stderr := runCLI(t, "build", "-config", configPath, "-quiet")
	require.Equal(t, 0, code, stderr)

	loaded, err = reloader.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	require.NotNil(t, handler.State())
	assert.Equal(t, 1, handler.State().Snapshot.Version)
	assert.Equal(t, 3, handler.State().Graph.NumNodes())

	// Same version again is a no-op.
	loaded, err = reloader.Reload(ctx)
	require.NoError(t, err)
	assert.False(t, loaded)

	code, _, _ = runCLI(t, "build", "-config", configPath, "-quiet")
	require.Equal(t, 0, code)
	loaded, err = reloader.Reload(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 2, handler.State().Snapshot.Version)
}

func TestEncodeDecodeGraph_ModeMismatch(t *testing.T) {
	_, err := decodeGraph("tree", []byte("{}"))
	assert.Error(t, err)

	_, err = encodeGraph(modeDense, nil)
	assert.Error(t, err)
}
