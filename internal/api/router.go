// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package api exposes the similarity graph as a read-only JSON HTTP API.
//
// Routes:
//
//	GET /health                                  liveness
//	GET /health/ready                            503 until a graph is loaded
//	GET /metrics                                 Prometheus exposition
//	GET /api/v1/graph/stats                      node and edge counts
//	GET /api/v1/movies                           ids with stored records
//	GET /api/v1/movies/{id}                      one record
//	GET /api/v1/movies/{id}/neighbors            every link of id
//	GET /api/v1/movies/{id}/similar?k=           top-k links of id
//	GET /api/v1/movies/{id}/explain/{other}      per-criterion score breakdown
//	GET /api/v1/events                           websocket of graph_loaded events
//
// Every JSON response uses the APIResponse envelope.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires h behind the middleware stack built by mw.
func NewRouter(h *Handler, mw *ChiMiddleware) http.Handler {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	r := chi.NewRouter()

	// Global middleware, applied in order
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(RequestLogger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/health", h.Health)
	r.Get("/health/ready", h.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(PrometheusMetrics)
		r.Use(Compression)

		r.Get("/graph/stats", h.GraphStats)
		r.Get("/events", h.Events)
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", h.Movies)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Movie)
				r.Get("/neighbors", h.Neighbors)
				r.Get("/similar", h.Similar)
				r.Get("/explain/{other}", h.Explain)
			})
		})
	})

	return r
}
