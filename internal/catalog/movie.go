// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package catalog defines the movie record consumed by the similarity graph
// and the sources that supply it.
//
// Records are read-only to the graph engine. Optional fields (Year, Rating)
// are pointers: a nil pointer is an absent value and is never an error.
package catalog

import "slices"

// Movie is a single catalog record.
type Movie struct {
	// ID is the stable catalog identifier (TMDB movie id).
	ID int `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Year is the release year, nil when unknown.
	Year *int `json:"year"`

	// Rating is the average vote (typically 0-10), nil when unknown.
	Rating *float64 `json:"rating"`

	// Genres is the ordered list of genre labels.
	Genres []string `json:"genres"`

	// Director is the primary director, empty when unknown.
	Director string `json:"director"`

	// Cast is the ordered list of billed cast members (usually truncated upstream).
	Cast []string `json:"cast"`
}

// Int returns a pointer to v for populating optional integer fields.
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v for populating optional float fields.
func Float(v float64) *float64 {
	return &v
}

// YearValue returns the release year and whether it is present.
func (m *Movie) YearValue() (int, bool) {
	if m.Year == nil {
		return 0, false
	}
	return *m.Year, true
}

// RatingValue returns the rating and whether it is present.
func (m *Movie) RatingValue() (float64, bool) {
	if m.Rating == nil {
		return 0, false
	}
	return *m.Rating, true
}

// Clone returns a deep copy so callers cannot alias slices held by a graph.
func (m Movie) Clone() Movie {
	c := m
	if m.Year != nil {
		c.Year = Int(*m.Year)
	}
	if m.Rating != nil {
		c.Rating = Float(*m.Rating)
	}
	c.Genres = slices.Clone(m.Genres)
	c.Cast = slices.Clone(m.Cast)
	return c
}
