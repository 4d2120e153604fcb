// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// scope holds the ids that tag every log line of one unit of work: an API
// request or a `cinegraph build` run.
type scope struct {
	requestID string
	buildID   string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// GenerateRequestID creates a new request ID.
func GenerateRequestID() string {
	return uuid.NewString()
}

// GenerateBuildID creates a short build ID, readable in console output.
func GenerateBuildID() string {
	return uuid.NewString()[:8]
}

// ContextWithRequestID returns a copy of ctx carrying the request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	s := scopeFrom(ctx)
	s.requestID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// ContextWithBuildID returns a copy of ctx carrying the build id.
func ContextWithBuildID(ctx context.Context, id string) context.Context {
	s := scopeFrom(ctx)
	s.buildID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

// BuildIDFromContext returns the build ID stored in ctx, or "".
func BuildIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).buildID
}

// WithContext returns l tagged with the ids carried by ctx.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithContext(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	s := scopeFrom(ctx)
	if s.requestID == "" && s.buildID == "" {
		return l
	}
	c := l.With()
	if s.requestID != "" {
		c = c.Str("request_id", s.requestID)
	}
	if s.buildID != "" {
		c = c.Str("build_id", s.buildID)
	}
	return c.Logger()
}

// Ctx returns the global logger tagged with the ids carried by ctx.
//
//	logging.Ctx(ctx).Info().Msg("Processing request")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := WithContext(ctx, Logger())
	return &l
}
