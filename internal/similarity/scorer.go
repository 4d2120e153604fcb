// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package similarity scores how alike two catalog records are.
//
// The score is the sum of independent criteria, each contributing a fixed
// bonus when it matches:
//
//	score(a, b) = genre_bonus    * [genres(a) ∩ genres(b) ≠ ∅]
//	            + rating_bonus   * [|rating(a) - rating(b)| ≤ rating_tolerance]
//	            + director_bonus * [director(a) = director(b) ≠ ""]
//	            + cast_bonus     * [|cast(a) ∩ cast(b)| ≥ cast_min_overlap]
//	            + year_bonus     * [|year(a) - year(b)| ≤ year_tolerance]
//
// Absent optional fields never match. Scoring is pure, symmetric and
// deterministic, so it is safe to call from several goroutines.
package similarity

import (
	"fmt"
	"math"

	"github.com/tomtom215/cinegraph/internal/catalog"
)

// Scorer computes pairwise similarity scores.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given weighting.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid similarity config: %w", err)
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the weighting in use.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Breakdown is the per-criterion contribution to a score.
type Breakdown struct {
	Genre    int `json:"genre"`
	Rating   int `json:"rating"`
	Director int `json:"director"`
	Cast     int `json:"cast"`
	Year     int `json:"year"`
}

// Total returns the summed score.
func (b Breakdown) Total() int {
	return b.Genre + b.Rating + b.Director + b.Cast + b.Year
}

// Score returns the similarity score of a and b. A nil record scores zero.
func (s *Scorer) Score(a, b *catalog.Movie) int {
	return s.Explain(a, b).Total()
}

// Explain returns the contribution of every criterion for a and b.
func (s *Scorer) Explain(a, b *catalog.Movie) Breakdown {
	if a == nil || b == nil {
		return Breakdown{}
	}

	var br Breakdown
	if overlap(a.Genres, b.Genres) > 0 {
		br.Genre = s.cfg.GenreBonus
	}
	if ratingClose(a, b, s.cfg.RatingTolerance) {
		br.Rating = s.cfg.RatingBonus
	}
	if a.Director != "" && a.Director == b.Director {
		br.Director = s.cfg.DirectorBonus
	}
	if overlap(a.Cast, b.Cast) >= s.cfg.CastMinOverlap {
		br.Cast = s.cfg.CastBonus
	}
	if yearClose(a, b, s.cfg.YearTolerance) {
		br.Year = s.cfg.YearBonus
	}
	return br
}

func ratingClose(a, b *catalog.Movie, tolerance float64) bool {
	ra, ok := a.RatingValue()
	if !ok {
		return false
	}
	rb, ok := b.RatingValue()
	if !ok {
		return false
	}
	return math.Abs(ra-rb) <= tolerance
}

func yearClose(a, b *catalog.Movie, tolerance int) bool {
	ya, ok := a.YearValue()
	if !ok {
		return false
	}
	yb, ok := b.YearValue()
	if !ok {
		return false
	}
	diff := ya - yb
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// overlap returns the size of the set intersection of a and b.
// Duplicates within either slice count once.
func overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}

	n := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			n++
			delete(set, s)
		}
	}
	return n
}
