// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package services provides suture service wrappers for the serve command.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Reloader swaps in a newer graph when one is available.
type Reloader interface {
	// Reload loads the newest graph if it differs from the one being
	// served, reporting whether a swap happened.
	Reload(ctx context.Context) (bool, error)
}

// ReloadServiceConfig holds configuration for the reload service.
type ReloadServiceConfig struct {
	// ReloadOnStartup triggers a reload when the service starts.
	ReloadOnStartup bool

	// Interval is how often to poll for a newer graph. Default: 1m
	Interval time.Duration

	// Timeout bounds a single reload. Default: 5m
	Timeout time.Duration
}

// ReloadService polls a Reloader on a fixed interval. Failed reloads are
// logged and retried on the next tick; the previous graph stays in service.
type ReloadService struct {
	reloader Reloader
	config   ReloadServiceConfig
	logger   zerolog.Logger
	name     string
}

// NewReloadService creates a reload service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewReloadService(reloader Reloader, cfg ReloadServiceConfig, logger zerolog.Logger) *ReloadService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &ReloadService{
		reloader: reloader,
		config:   cfg,
		logger:   logger.With().Str("service", "reload").Logger(),
		name:     "reload-service",
	}
}

// Serve implements suture.Service.
func (s *ReloadService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("reload_on_startup", s.config.ReloadOnStartup).
		Dur("interval", s.config.Interval).
		Msg("reload service starting")

	if s.config.ReloadOnStartup {
		s.reload(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reload service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.reload(ctx)
		}
	}
}

func (s *ReloadService) reload(ctx context.Context) {
	reloadCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	swapped, err := s.reloader.Reload(reloadCtx)
	if errors.Is(err, gobreaker.ErrOpenState) {
		s.logger.Debug().Msg("graph reload skipped, circuit open")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("graph reload failed, keeping current graph")
		return
	}
	if swapped {
		s.logger.Info().Dur("duration", time.Since(start)).Msg("graph reloaded")
		return
	}
	s.logger.Debug().Msg("graph up to date")
}

// String returns the service name for logging.
func (s *ReloadService) String() string {
	return s.name
}
