// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/cinegraph/internal/api"
	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/similarity"
	"github.com/tomtom215/cinegraph/internal/supervisor"
	"github.com/tomtom215/cinegraph/internal/supervisor/services"
	"github.com/tomtom215/cinegraph/internal/websocket"
)

func runServe(ctx context.Context, args []string, _ io.Writer) error {
	fs, configPath := newFlagSet("serve")
	file := fs.String("file", "", "serve a graph document instead of the snapshot store")
	mode := fs.String("mode", "", "graph mode of -file: dense or sparse (default build.mode)")
	port := fs.Int("port", 0, "listen port (default server.port)")

	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if set["mode"] {
		cfg.Build.Mode = *mode
	}
	if set["port"] {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	logging.Info().
		Str("storage_backend", cfg.Storage.Backend).
		Str("snapshot", cfg.Storage.Name).
		Int("port", cfg.Server.Port).
		Msg("Starting Cinegraph with supervisor tree")

	scorer, err := similarity.NewScorer(cfg.Similarity.ScorerConfig())
	if err != nil {
		return err
	}
	handler := api.NewHandler(scorer, cfg.Build.TopK)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if *file != "" {
		g, err := loadGraphFile(*file, cfg.Build.Mode)
		if err != nil {
			return err
		}
		handler.SetGraph(g, nil)
		logging.Info().Str("file", *file).Int("nodes", g.NumNodes()).Msg("Graph loaded from file")
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing snapshot store")
			}
		}()

		reloader := newStoreReloader(store, cfg.Storage.Name, handler)
		loaded, err := reloader.Reload(ctx)
		switch {
		case err != nil:
			logging.Warn().Err(err).Msg("Initial snapshot load failed")
		case !loaded:
			logging.Warn().Str("snapshot", cfg.Storage.Name).Msg("No snapshot stored yet; run 'cinegraph build'")
		default:
			logging.Info().Int("version", handler.State().Snapshot.Version).Msg("Snapshot loaded")
		}

		if cfg.Server.ReloadInterval > 0 {
			logger := logging.WithComponent("snapshot")
			guarded := services.NewBreakerReloader(reloader, services.BreakerConfig{}, logger)
			tree.AddDataService(services.NewReloadService(guarded, services.ReloadServiceConfig{
				Interval: cfg.Server.ReloadInterval,
			}, logger))
		}
	}

	hub := websocket.NewHub()
	handler.SetEventHub(hub, cfg.Server.CORSOrigins)
	tree.AddAPIService(services.NewEventHubService(hub, logging.WithComponent("websocket")))

	mw := api.NewChiMiddleware(api.NewMiddlewareConfig(
		cfg.Server.CORSOrigins,
		cfg.Server.RateLimitReqs,
		cfg.Server.RateLimitWindow,
		cfg.Server.RateLimitDisabled,
	))
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, mw),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logging.WithComponent("api")))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// The channel receives exactly one value and is never closed.
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Server stopped gracefully")
	return nil
}
