// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// errHubExited is returned when the hub stops while its context is live.
var errHubExited = errors.New("event hub exited unexpectedly")

// EventHub is the part of *websocket.Hub the service drives.
type EventHub interface {
	RunWithContext(ctx context.Context) error
	ClientCount() int
}

// EventHubService runs the graph event hub under supervision. Each run is
// numbered so restarts show up in the logs; clients connected when the hub
// stops are disconnected and reconnect on their own.
type EventHubService struct {
	hub    EventHub
	logger zerolog.Logger
	runs   atomic.Int64
}

// NewEventHubService wraps hub as a suture service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEventHubService(hub EventHub, logger zerolog.Logger) *EventHubService {
	return &EventHubService{
		hub:    hub,
		logger: logger.With().Str("service", "event-hub").Logger(),
	}
}

// Serve implements suture.Service. It returns ctx.Err() on shutdown and a
// wrapped error when the hub stops on its own, which makes suture restart it.
func (s *EventHubService) Serve(ctx context.Context) error {
	run := s.runs.Add(1)
	s.logger.Info().Int64("run", run).Msg("Event hub started")

	err := s.hub.RunWithContext(ctx)
	if ctx.Err() != nil {
		s.logger.Info().Int64("run", run).Msg("Event hub stopped")
		return ctx.Err()
	}
	if err == nil {
		err = errHubExited
	}
	s.logger.Error().Err(err).Int64("run", run).Int("clients", s.hub.ClientCount()).Msg("Event hub failed")
	return fmt.Errorf("event hub run %d: %w", run, err)
}

// Runs reports how many times Serve has been entered.
func (s *EventHubService) Runs() int64 {
	return s.runs.Load()
}

// String returns the service name for logging.
func (s *EventHubService) String() string {
	return "event-hub"
}
