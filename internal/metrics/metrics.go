// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package metrics holds the Prometheus collectors for Cinegraph.
//
// Collectors are registered with the default registry through promauto and
// scraped from the /metrics endpoint. Callers use the Record* helpers rather
// than touching collectors directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Graph build metrics
	GraphBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinegraph_build_duration_seconds",
			Help:    "Duration of similarity graph builds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~262s
		},
		[]string{"mode"}, // "dense", "sparse"
	)

	GraphBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinegraph_builds_total",
			Help: "Total number of graph builds by outcome",
		},
		[]string{"mode", "status"}, // status: "success", "error", "canceled"
	)

	GraphPairsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinegraph_pairs_scored_total",
			Help: "Total number of movie pairs scored by the builder",
		},
	)

	GraphNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinegraph_graph_nodes",
			Help: "Number of nodes in the most recently built or loaded graph",
		},
	)

	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinegraph_graph_edges",
			Help: "Number of undirected edges in the most recently built or loaded graph",
		},
	)

	// Snapshot store metrics
	SnapshotOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinegraph_snapshot_operation_duration_seconds",
			Help:    "Duration of snapshot store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"}, // operation: "save", "load", "prune"
	)

	SnapshotErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinegraph_snapshot_errors_total",
			Help: "Total number of failed snapshot store operations",
		},
		[]string{"backend", "operation"},
	)

	SnapshotBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinegraph_snapshot_bytes",
			Help:    "Stored size of saved snapshots in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB .. 256MiB
		},
		[]string{"backend"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinegraph_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinegraph_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinegraph_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinegraph_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinegraph_circuit_breaker_requests_total",
			Help: "Total number of calls through a circuit breaker by result",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinegraph_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// Build outcomes used as the status label of GraphBuildsTotal.
const (
	BuildSuccess  = "success"
	BuildError    = "error"
	BuildCanceled = "canceled"
)

// RecordGraphBuild records the outcome of one builder run.
func RecordGraphBuild(mode, status string, pairs int, duration time.Duration) {
	GraphBuildsTotal.WithLabelValues(mode, status).Inc()
	if status != BuildSuccess {
		return
	}
	GraphBuildDuration.WithLabelValues(mode).Observe(duration.Seconds())
	GraphPairsScored.Add(float64(pairs))
}

// SetGraphSize publishes the size of the graph currently being served.
func SetGraphSize(nodes, edges int) {
	GraphNodes.Set(float64(nodes))
	GraphEdges.Set(float64(edges))
}

// RecordSnapshotOperation records one snapshot store operation. size is
// only observed for successful saves.
func RecordSnapshotOperation(backend, operation string, size int, duration time.Duration, err error) {
	SnapshotOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		SnapshotErrors.WithLabelValues(backend, operation).Inc()
		return
	}
	if operation == "save" {
		SnapshotBytes.WithLabelValues(backend).Observe(float64(size))
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
