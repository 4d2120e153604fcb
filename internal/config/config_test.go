// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/cinegraph/internal/similarity"
)

// isolate points CONFIG_PATH at a missing file and moves into an empty
// directory so no stray config.yaml is picked up.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, "")
	t.Chdir(t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.Similarity.ScorerConfig(); got != similarity.DefaultConfig() {
		t.Errorf("similarity defaults = %+v, want %+v", got, similarity.DefaultConfig())
	}
	if cfg.Build.Threshold != 7 {
		t.Errorf("Build.Threshold = %d, want 7", cfg.Build.Threshold)
	}
	if cfg.Build.Mode != "dense" {
		t.Errorf("Build.Mode = %q, want dense", cfg.Build.Mode)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server.Timeout = %v, want 30s", cfg.Server.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("Server.Port = %d, want 8090", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("Server.CORSOrigins = %v, want [*]", cfg.Server.CORSOrigins)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("CINEGRAPH_THRESHOLD", "6")
	t.Setenv("CINEGRAPH_MODE", "sparse")
	t.Setenv("CINEGRAPH_RATING_TOLERANCE", "0.5")
	t.Setenv("SNAPSHOT_BACKEND", "badger")
	t.Setenv("HTTP_TIMEOUT", "45s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Build.Threshold != 6 {
		t.Errorf("Build.Threshold = %d, want 6", cfg.Build.Threshold)
	}
	if cfg.Build.Mode != "sparse" {
		t.Errorf("Build.Mode = %q, want sparse", cfg.Build.Mode)
	}
	if cfg.Similarity.RatingTolerance != 0.5 {
		t.Errorf("Similarity.RatingTolerance = %v, want 0.5", cfg.Similarity.RatingTolerance)
	}
	if cfg.Storage.Backend != "badger" {
		t.Errorf("Storage.Backend = %q, want badger", cfg.Storage.Backend)
	}
	if cfg.Server.Timeout != 45*time.Second {
		t.Errorf("Server.Timeout = %v, want 45s", cfg.Server.Timeout)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.Server.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "cinegraph.yaml")
	yaml := `
similarity:
  genre_bonus: 4
  year_tolerance: 2
build:
  threshold: 3
  workers: 4
storage:
  backend: file
  path: /var/lib/cinegraph
server:
  port: 9000
  cors_origins:
    - https://ui.example
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Similarity.GenreBonus != 4 || cfg.Similarity.YearTolerance != 2 {
		t.Errorf("file values not applied: %+v", cfg.Similarity)
	}
	if cfg.Similarity.RatingBonus != 3 {
		t.Errorf("unset file values must keep defaults, RatingBonus = %d", cfg.Similarity.RatingBonus)
	}
	if cfg.Build.Threshold != 3 || cfg.Build.Workers != 4 {
		t.Errorf("Build = %+v", cfg.Build)
	}
	if cfg.Storage.Path != "/var/lib/cinegraph" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("env must override file: Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://ui.example" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadWithKoanf_InvalidEnv(t *testing.T) {
	isolate(t)
	t.Setenv("CINEGRAPH_MODE", "triangular")

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "build.mode") {
		t.Errorf("expected build.mode validation error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"negative bonus", func(c *Config) { c.Similarity.GenreBonus = -1 }, "genre"},
		{"zero cast overlap", func(c *Config) { c.Similarity.CastMinOverlap = 0 }, "cast"},
		{"negative threshold", func(c *Config) { c.Build.Threshold = -1 }, "build.threshold"},
		{"negative workers", func(c *Config) { c.Build.Workers = -2 }, "build.workers"},
		{"bad mode", func(c *Config) { c.Build.Mode = "" }, "build.mode"},
		{"top k too large", func(c *Config) { c.Build.TopK = 101 }, "build.top_k"},
		{"bad backend", func(c *Config) { c.Storage.Backend = "s3" }, "storage.backend"},
		{"file backend without path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"badger without path is in-memory", func(c *Config) { c.Storage.Backend = "badger"; c.Storage.Path = "" }, ""},
		{"bad snapshot name", func(c *Config) { c.Storage.Name = "a/b" }, "storage.name"},
		{"keep zero versions", func(c *Config) { c.Storage.KeepVersions = 0 }, "storage.keep_versions"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, "server.timeout"},
		{"zero rate limit", func(c *Config) { c.Server.RateLimitReqs = 0 }, "server.rate_limit_reqs"},
		{"rate limit disabled", func(c *Config) { c.Server.RateLimitReqs = 0; c.Server.RateLimitDisabled = true }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"CINEGRAPH_THRESHOLD": "build.threshold",
		"MOVIES_DATA_PATH":    "catalog.path",
		"snapshot_compress":   "storage.compress",
		"PATH":                "",
		"HOME":                "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
