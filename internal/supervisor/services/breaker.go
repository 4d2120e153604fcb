// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cinegraph/internal/metrics"
)

// BreakerConfig configures a BreakerReloader.
type BreakerConfig struct {
	// Name labels the breaker in logs and metrics. Default: "snapshot-reload"
	Name string

	// MaxFailures is the number of consecutive failed reloads that opens
	// the circuit. Default: 3
	MaxFailures uint32

	// Timeout is how long the circuit stays open before a trial reload.
	// Default: 5m
	Timeout time.Duration
}

// BreakerReloader wraps a Reloader with a circuit breaker so a broken
// snapshot store is not hammered on every tick. While the circuit is open
// Reload returns gobreaker.ErrOpenState without calling the store.
type BreakerReloader struct {
	next Reloader
	cb   *gobreaker.CircuitBreaker[bool]
	name string
}

// NewBreakerReloader wraps next with a circuit breaker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBreakerReloader(next Reloader, cfg BreakerConfig, logger zerolog.Logger) *BreakerReloader {
	if cfg.Name == "" {
		cfg.Name = "snapshot-reload"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	logger = logger.With().Str("breaker", cfg.Name).Logger()

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerReloader{next: next, cb: cb, name: cfg.Name}
}

// Reload implements Reloader.
func (b *BreakerReloader) Reload(ctx context.Context) (bool, error) {
	swapped, err := b.cb.Execute(func() (bool, error) {
		return b.next.Reload(ctx)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return swapped, err
}

// State returns the current breaker state.
func (b *BreakerReloader) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
