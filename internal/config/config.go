// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package config loads Cinegraph configuration.
//
// Values are layered with koanf, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: $CONFIG_PATH, then config.yaml / config.yml in
//     the working directory, then /etc/cinegraph/config.yaml
//  3. Environment variables listed in envMappings (e.g. CINEGRAPH_THRESHOLD)
//
// The result is validated before it is returned.
package config

import (
	"time"

	"github.com/tomtom215/cinegraph/internal/similarity"
)

// Config is the complete application configuration.
type Config struct {
	Similarity SimilarityConfig `koanf:"similarity"`
	Build      BuildConfig      `koanf:"build"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Storage    StorageConfig    `koanf:"storage"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// SimilarityConfig holds the scoring weights and tolerances.
type SimilarityConfig struct {
	GenreBonus      int     `koanf:"genre_bonus"`
	RatingBonus     int     `koanf:"rating_bonus"`
	RatingTolerance float64 `koanf:"rating_tolerance"`
	DirectorBonus   int     `koanf:"director_bonus"`
	CastBonus       int     `koanf:"cast_bonus"`
	CastMinOverlap  int     `koanf:"cast_min_overlap"`
	YearBonus       int     `koanf:"year_bonus"`
	YearTolerance   int     `koanf:"year_tolerance"`
}

// ScorerConfig converts the section into a similarity.Config.
func (s SimilarityConfig) ScorerConfig() similarity.Config {
	return similarity.Config{
		GenreBonus:      s.GenreBonus,
		RatingBonus:     s.RatingBonus,
		RatingTolerance: s.RatingTolerance,
		DirectorBonus:   s.DirectorBonus,
		CastBonus:       s.CastBonus,
		CastMinOverlap:  s.CastMinOverlap,
		YearBonus:       s.YearBonus,
		YearTolerance:   s.YearTolerance,
	}
}

// BuildConfig controls graph construction.
type BuildConfig struct {
	// Threshold is the score a pair must exceed to be linked.
	Threshold int `koanf:"threshold"`

	// Workers is the number of scoring goroutines; 0 means runtime.NumCPU().
	Workers int `koanf:"workers"`

	// Mode is "dense" (nodes addressed by position) or "sparse" (by movie id).
	Mode string `koanf:"mode"`

	// TopK is the default number of similar movies returned.
	TopK int `koanf:"top_k"`
}

// CatalogConfig locates the movie catalog.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// StorageConfig selects the snapshot backend.
type StorageConfig struct {
	Backend      string `koanf:"backend"` // "file" or "badger"
	Path         string `koanf:"path"`
	Name         string `koanf:"name"`
	KeepVersions int    `koanf:"keep_versions"`
	Compress     bool   `koanf:"compress"`
}

// ServerConfig configures the HTTP query API.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// ReloadInterval is how often serve polls the store for a newer
	// snapshot; 0 disables reloading.
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
