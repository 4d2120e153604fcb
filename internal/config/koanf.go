// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinegraph/config.yaml",
	"/etc/cinegraph/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. Scoring weights follow the
// most recent scorer revision; the threshold of 7 matches the command-line
// tool the graph files are shared with.
func defaultConfig() *Config {
	return &Config{
		Similarity: SimilarityConfig{
			GenreBonus:      3,
			RatingBonus:     3,
			RatingTolerance: 1.0,
			DirectorBonus:   2,
			CastBonus:       1,
			CastMinOverlap:  2,
			YearBonus:       2,
			YearTolerance:   5,
		},
		Build: BuildConfig{
			Threshold: 7,
			Workers:   0,
			Mode:      "dense",
			TopK:      5,
		},
		Catalog: CatalogConfig{
			Path: "movies_data.json",
		},
		Storage: StorageConfig{
			Backend:      "file",
			Path:         "data/snapshots",
			Name:         "movies",
			KeepVersions: 5,
			Compress:     true,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			ReloadInterval:  time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file
// and the environment, in increasing order of precedence.
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is LoadWithKoanf with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when they come
// from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Similarity weights
	"cinegraph_genre_bonus":      "similarity.genre_bonus",
	"cinegraph_rating_bonus":     "similarity.rating_bonus",
	"cinegraph_rating_tolerance": "similarity.rating_tolerance",
	"cinegraph_director_bonus":   "similarity.director_bonus",
	"cinegraph_cast_bonus":       "similarity.cast_bonus",
	"cinegraph_cast_min_overlap": "similarity.cast_min_overlap",
	"cinegraph_year_bonus":       "similarity.year_bonus",
	"cinegraph_year_tolerance":   "similarity.year_tolerance",

	// Build
	"cinegraph_threshold": "build.threshold",
	"cinegraph_workers":   "build.workers",
	"cinegraph_mode":      "build.mode",
	"cinegraph_top_k":     "build.top_k",

	// Catalog
	"cinegraph_catalog_path": "catalog.path",
	"movies_data_path":       "catalog.path",

	// Storage
	"snapshot_backend":       "storage.backend",
	"snapshot_path":          "storage.path",
	"snapshot_name":          "storage.name",
	"snapshot_keep_versions": "storage.keep_versions",
	"snapshot_compress":      "storage.compress",

	// Server
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"reload_interval":     "server.reload_interval",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths. Unmapped
// variables return "" and are ignored.
//
// Examples:
//   - CINEGRAPH_THRESHOLD -> build.threshold
//   - SNAPSHOT_BACKEND -> storage.backend
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
