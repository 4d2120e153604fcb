// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package codec reads and writes similarity graphs as JSON documents.
//
// # Document Format
//
// A document has two top-level keys:
//
//	{
//	  "adj_list":   ...,   // per-node list of [neighbor_id, weight] pairs
//	  "nodes_data": ...    // per-node movie record or null
//	}
//
// Dense graphs encode both values as arrays indexed by node id:
//
//	{"adj_list": [[[1, 8]], [[0, 8]], []], "nodes_data": [{...}, {...}, null]}
//
// Sparse graphs encode both values as objects keyed by the string form of
// the node id; a KeyCodec converts between ids and keys. Neighbor ids inside
// the pairs keep their native JSON type.
//
// # Loading
//
// Decoders reject a document that is not valid JSON, lacks either top-level
// key, has an unparsable key or pair, has mismatched dense lengths, or fails
// graph.Verify. Every rejection is a *DocumentError matching
// ErrMalformedDocument. Decoders never return a partially populated graph.
package codec

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinegraph/internal/graph"
)

// Top-level document keys.
const (
	KeyAdjList   = "adj_list"
	KeyNodesData = "nodes_data"
)

// ErrMalformedDocument is matched by every *DocumentError.
var ErrMalformedDocument = errors.New("malformed graph document")

// DocumentError describes why a persisted document was rejected.
type DocumentError struct {
	// Field locates the problem, for example "adj_list" or "nodes_data[3]".
	Field string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *DocumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", ErrMalformedDocument, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrMalformedDocument, e.Field, e.Err)
}

// Unwrap exposes both ErrMalformedDocument and the cause to errors.Is.
func (e *DocumentError) Unwrap() []error {
	return []error{ErrMalformedDocument, e.Err}
}

func malformed(field string, err error) error {
	return &DocumentError{Field: field, Err: err}
}

// KeyCodec converts sparse node ids to and from object keys.
type KeyCodec[K cmp.Ordered] interface {
	Format(id K) string
	Parse(key string) (K, error)
}

type intKeys struct{}

func (intKeys) Format(id int) string { return strconv.Itoa(id) }

func (intKeys) Parse(key string) (int, error) { return strconv.Atoi(key) }

type stringKeys struct{}

func (stringKeys) Format(id string) string { return id }

func (stringKeys) Parse(key string) (string, error) { return key, nil }

var (
	// IntKeys encodes integer ids as decimal keys.
	IntKeys KeyCodec[int] = intKeys{}

	// StringKeys uses string ids as keys unchanged.
	StringKeys KeyCodec[string] = stringKeys{}
)

// pair is the wire form of a graph.Neighbor: a two-element array.
type pair[K cmp.Ordered] graph.Neighbor[K]

// MarshalJSON implements json.Marshaler.
func (p pair[K]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.ID, p.Weight})
}

// UnmarshalJSON implements json.Unmarshaler. Weights must be integers.
func (p *pair[K]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("pair must be an array: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("pair must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.ID); err != nil {
		return fmt.Errorf("pair neighbor id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Weight); err != nil {
		return fmt.Errorf("pair weight: %w", err)
	}
	return nil
}

func toPairs[K cmp.Ordered](in []graph.Neighbor[K]) []pair[K] {
	out := make([]pair[K], len(in))
	for i, n := range in {
		out[i] = pair[K](n)
	}
	return out
}

func toNeighbors[K cmp.Ordered](in []pair[K]) []graph.Neighbor[K] {
	out := make([]graph.Neighbor[K], len(in))
	for i, p := range in {
		out[i] = graph.Neighbor[K](p)
	}
	return out
}

// splitDocument parses the outer object and returns the two required
// members.
func splitDocument(data []byte) (adj, nodes json.RawMessage, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, malformed("", fmt.Errorf("invalid JSON: %w", err))
	}
	if top == nil {
		return nil, nil, malformed("", errors.New("document must be an object"))
	}
	for _, key := range []string{KeyAdjList, KeyNodesData} {
		v, ok := top[key]
		if !ok {
			return nil, nil, malformed(key, errors.New("missing key"))
		}
		if string(bytes.TrimSpace(v)) == "null" {
			return nil, nil, malformed(key, errors.New("must not be null"))
		}
	}
	return top[KeyAdjList], top[KeyNodesData], nil
}
