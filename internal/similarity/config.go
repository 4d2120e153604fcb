// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package similarity

import "fmt"

// Config holds the bonus awarded by each criterion and the tolerances that
// decide whether a criterion matches.
type Config struct {
	// GenreBonus is awarded when the two genre sets intersect.
	// Default: 3.
	GenreBonus int `json:"genre_bonus"`

	// RatingBonus is awarded when both ratings are present and differ by at
	// most RatingTolerance.
	// Default: 3.
	RatingBonus int `json:"rating_bonus"`

	// RatingTolerance is the maximum absolute rating difference (inclusive).
	// Default: 1.0.
	RatingTolerance float64 `json:"rating_tolerance"`

	// DirectorBonus is awarded when both directors are non-empty and equal.
	// Default: 2.
	DirectorBonus int `json:"director_bonus"`

	// CastBonus is awarded when at least CastMinOverlap cast members are shared.
	// Default: 1.
	CastBonus int `json:"cast_bonus"`

	// CastMinOverlap is the minimum number of shared cast names.
	// Default: 2.
	CastMinOverlap int `json:"cast_min_overlap"`

	// YearBonus is awarded when both years are present and differ by at most
	// YearTolerance.
	// Default: 2.
	YearBonus int `json:"year_bonus"`

	// YearTolerance is the maximum absolute year difference (inclusive).
	// Default: 5.
	YearTolerance int `json:"year_tolerance"`
}

// DefaultConfig returns the weighting used by the published movie graph.
func DefaultConfig() Config {
	return Config{
		GenreBonus:      3,
		RatingBonus:     3,
		RatingTolerance: 1.0,
		DirectorBonus:   2,
		CastBonus:       1,
		CastMinOverlap:  2,
		YearBonus:       2,
		YearTolerance:   5,
	}
}

// MaxScore returns the score of a pair matching every criterion.
func (c Config) MaxScore() int {
	return c.GenreBonus + c.RatingBonus + c.DirectorBonus + c.CastBonus + c.YearBonus
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.GenreBonus < 0 {
		return fmt.Errorf("similarity.genre_bonus must be non-negative, got %d", c.GenreBonus)
	}
	if c.RatingBonus < 0 {
		return fmt.Errorf("similarity.rating_bonus must be non-negative, got %d", c.RatingBonus)
	}
	if c.RatingTolerance < 0 {
		return fmt.Errorf("similarity.rating_tolerance must be non-negative, got %f", c.RatingTolerance)
	}
	if c.DirectorBonus < 0 {
		return fmt.Errorf("similarity.director_bonus must be non-negative, got %d", c.DirectorBonus)
	}
	if c.CastBonus < 0 {
		return fmt.Errorf("similarity.cast_bonus must be non-negative, got %d", c.CastBonus)
	}
	if c.CastMinOverlap < 1 {
		return fmt.Errorf("similarity.cast_min_overlap must be positive, got %d", c.CastMinOverlap)
	}
	if c.YearBonus < 0 {
		return fmt.Errorf("similarity.year_bonus must be non-negative, got %d", c.YearBonus)
	}
	if c.YearTolerance < 0 {
		return fmt.Errorf("similarity.year_tolerance must be non-negative, got %d", c.YearTolerance)
	}
	return nil
}
