// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordGraphBuild(t *testing.T) {
	beforeOK := testutil.ToFloat64(GraphBuildsTotal.WithLabelValues("dense", BuildSuccess))
	beforeErr := testutil.ToFloat64(GraphBuildsTotal.WithLabelValues("dense", BuildError))
	beforePairs := testutil.ToFloat64(GraphPairsScored)

	RecordGraphBuild("dense", BuildSuccess, 45, 20*time.Millisecond)
	RecordGraphBuild("dense", BuildError, 10, time.Millisecond)

	if got := testutil.ToFloat64(GraphBuildsTotal.WithLabelValues("dense", BuildSuccess)); got != beforeOK+1 {
		t.Errorf("success builds = %v, want %v", got, beforeOK+1)
	}
	if got := testutil.ToFloat64(GraphBuildsTotal.WithLabelValues("dense", BuildError)); got != beforeErr+1 {
		t.Errorf("error builds = %v, want %v", got, beforeErr+1)
	}
	if got := testutil.ToFloat64(GraphPairsScored); got != beforePairs+45 {
		t.Errorf("pairs scored = %v, want %v (failed builds must not count)", got, beforePairs+45)
	}
}

func TestSetGraphSize(t *testing.T) {
	SetGraphSize(10, 23)

	if got := testutil.ToFloat64(GraphNodes); got != 10 {
		t.Errorf("nodes = %v, want 10", got)
	}
	if got := testutil.ToFloat64(GraphEdges); got != 23 {
		t.Errorf("edges = %v, want 23", got)
	}
}

func TestRecordSnapshotOperation(t *testing.T) {
	before := testutil.ToFloat64(SnapshotErrors.WithLabelValues("file", "load"))

	RecordSnapshotOperation("file", "save", 2048, 5*time.Millisecond, nil)
	RecordSnapshotOperation("file", "load", 0, time.Millisecond, errors.New("checksum mismatch"))

	if got := testutil.ToFloat64(SnapshotErrors.WithLabelValues("file", "load")); got != before+1 {
		t.Errorf("snapshot errors = %v, want %v", got, before+1)
	}
	if n := testutil.CollectAndCount(SnapshotBytes); n == 0 {
		t.Error("expected snapshot size observation")
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/graph/stats", "200"))

	RecordAPIRequest("GET", "/api/v1/graph/stats", "200", 3*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/graph/stats", "200")); got != before+1 {
		t.Errorf("requests = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
}
