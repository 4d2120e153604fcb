// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package api

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/cinegraph/internal/cache"
	"github.com/tomtom215/cinegraph/internal/graph"
	"github.com/tomtom215/cinegraph/internal/metrics"
	"github.com/tomtom215/cinegraph/internal/ranker"
	"github.com/tomtom215/cinegraph/internal/similarity"
	"github.com/tomtom215/cinegraph/internal/snapshot"
	"github.com/tomtom215/cinegraph/internal/validation"
	ws "github.com/tomtom215/cinegraph/internal/websocket"
)

// MaxK bounds the k accepted by the similar endpoint.
const MaxK = 100

// GraphState is the graph currently being served.
type GraphState struct {
	Graph graph.Graph[int]

	// Snapshot describes where Graph was loaded from; nil for graphs that
	// were not loaded from a store.
	Snapshot *snapshot.Metadata

	LoadedAt time.Time

	// gen increases with every SetGraph; cached answers are keyed by it.
	gen uint64
}

// similarCacheSize bounds the memoized top-k answers.
const similarCacheSize = 4096

type similarKey struct {
	gen   uint64
	id, k int
}

// Handler serves read-only graph queries. The graph is swapped atomically,
// so requests always observe one complete graph.
type Handler struct {
	state     atomic.Pointer[GraphState]
	gen       atomic.Uint64
	similar   *cache.LRU[similarKey, []graph.Neighbor[int]]
	scorer    *similarity.Scorer
	defaultK  int
	startTime time.Time

	events   *ws.Hub
	upgrader *websocket.Upgrader
}

// NewHandler creates a handler with no graph loaded. scorer may be nil, in
// which case the explain endpoint is unavailable.
func NewHandler(scorer *similarity.Scorer, defaultK int) *Handler {
	if defaultK < 1 || defaultK > MaxK {
		defaultK = ranker.DefaultK
	}
	return &Handler{
		similar:   cache.NewLRU[similarKey, []graph.Neighbor[int]](similarCacheSize, 10*time.Minute),
		scorer:    scorer,
		defaultK:  defaultK,
		startTime: time.Now(),
	}
}

// SetGraph replaces the served graph.
func (h *Handler) SetGraph(g graph.Graph[int], meta *snapshot.Metadata) {
	h.state.Store(&GraphState{Graph: g, Snapshot: meta, LoadedAt: time.Now().UTC(), gen: h.gen.Add(1)})
	metrics.SetGraphSize(g.NumNodes(), g.NumEdges())

	if h.events != nil {
		data := ws.GraphLoadedData{Nodes: g.NumNodes(), Edges: g.NumEdges()}
		if meta != nil {
			data.Name, data.Version, data.SnapshotID = meta.Name, meta.Version, meta.ID
		}
		h.events.BroadcastGraphLoaded(data)
	}
}

// SetEventHub enables the /api/v1/events websocket. Graph swaps are
// broadcast to hub; origins limits which browser origins may connect.
// Call before serving.
func (h *Handler) SetEventHub(hub *ws.Hub, origins []string) {
	h.events = hub
	h.upgrader = &websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      ws.OriginChecker(origins),
	}
}

// Events upgrades to a websocket that receives graph_loaded messages.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Event stream not available", nil)
		return
	}
	ws.Serve(r.Context(), h.events, h.upgrader, w, r)
}

// State returns the served graph, or nil before the first SetGraph.
func (h *Handler) State() *GraphState {
	return h.state.Load()
}

// HealthStatus is the body of /health.
type HealthStatus struct {
	Status      string  `json:"status"`
	GraphLoaded bool    `json:"graph_loaded"`
	Uptime      float64 `json:"uptime_seconds"`
}

// Health reports liveness. It always answers 200; Status is "degraded"
// while no graph is loaded.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	loaded := h.State() != nil
	status := "healthy"
	if !loaded {
		status = "degraded"
	}
	respondData(w, r, time.Time{}, HealthStatus{
		Status:      status,
		GraphLoaded: loaded,
		Uptime:      time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 503 until a graph is loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.State() == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Graph not loaded", nil)
		return
	}
	respondData(w, r, time.Time{}, map[string]bool{"ready": true})
}

// GraphStats is the body of /api/v1/graph/stats.
type GraphStats struct {
	Nodes    int                `json:"nodes"`
	Edges    int                `json:"edges"`
	Snapshot *snapshot.Metadata `json:"snapshot,omitempty"`
	LoadedAt time.Time          `json:"loaded_at"`
}

// GraphStats returns node and edge counts of the served graph.
func (h *Handler) GraphStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st, ok := h.requireGraph(w, r)
	if !ok {
		return
	}
	respondData(w, r, start, GraphStats{
		Nodes:    st.Graph.NumNodes(),
		Edges:    st.Graph.NumEdges(),
		Snapshot: st.Snapshot,
		LoadedAt: st.LoadedAt,
	})
}

// MovieList is the body of /api/v1/movies.
type MovieList struct {
	IDs   []int `json:"ids"`
	Count int   `json:"count"`
}

// Movies lists the ids of every movie with a stored record.
func (h *Handler) Movies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st, ok := h.requireGraph(w, r)
	if !ok {
		return
	}
	ids := st.Graph.Nodes()
	respondData(w, r, start, MovieList{IDs: ids, Count: len(ids)})
}

// Movie returns the record stored for {id}.
func (h *Handler) Movie(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st, ok := h.requireGraph(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	movie, found := st.Graph.NodeData(id)
	if !found {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Movie not found", nil)
		return
	}
	respondData(w, r, start, movie)
}

// NeighborView is one weighted link with the neighbor's title attached.
type NeighborView struct {
	ID     int    `json:"id"`
	Weight int    `json:"weight"`
	Title  string `json:"title,omitempty"`
}

// NeighborList is the body of the neighbors and similar endpoints.
type NeighborList struct {
	ID        int            `json:"id"`
	K         int            `json:"k,omitempty"`
	Neighbors []NeighborView `json:"neighbors"`
}

// Neighbors returns every link of {id} in adjacency order.
func (h *Handler) Neighbors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st, ok := h.requireGraph(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	neighbors := st.Graph.Neighbors(id)
	if len(neighbors) == 0 && !st.Graph.Has(id) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Movie not found", nil)
		return
	}
	respondData(w, r, start, NeighborList{ID: id, Neighbors: views(st.Graph, neighbors)})
}

// SimilarRequest holds the validated query of the similar endpoint.
type SimilarRequest struct {
	K int `query:"k" validate:"gte=1,lte=100"`
}

// Similar returns the k heaviest links of {id}.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st, ok := h.requireGraph(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	req := SimilarRequest{K: h.defaultK}
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "k must be an integer", err)
			return
		}
		req.K = k
	}
	if !validateRequest(w, r, &req) {
		return
	}

	if !st.Graph.Has(id) && len(st.Graph.Neighbors(id)) == 0 {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Movie not found", nil)
		return
	}
	key := similarKey{gen: st.gen, id: id, k: req.K}
	top, hit := h.similar.Get(key)
	if !hit {
		top = ranker.TopK(st.Graph, id, req.K)
		h.similar.Add(key, top)
	}
	respondData(w, r, start, NeighborList{ID: id, K: req.K, Neighbors: views(st.Graph, top)})
}

// ExplainRequest identifies the pair to explain.
type ExplainRequest struct {
	A int `json:"a"`
	B int `json:"b" validate:"nefield=A"`
}

// Explanation is the body of the explain endpoint.
type Explanation struct {
	A         int                  `json:"a"`
	B         int                  `json:"b"`
	Breakdown similarity.Breakdown `json:"breakdown"`
	Total     int                  `json:"total"`

	// Linked reports whether the served graph holds the edge, and Weight
	// its stored weight.
	Linked bool `json:"linked"`
	Weight int  `json:"weight,omitempty"`
}

// Explain scores {id} against {other} criterion by criterion.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st, ok := h.requireGraph(w, r)
	if !ok {
		return
	}
	if h.scorer == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Scorer not configured", nil)
		return
	}
	a, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	b, ok := pathID(w, r, "other")
	if !ok {
		return
	}
	req := ExplainRequest{A: a, B: b}
	if !validateRequest(w, r, &req) {
		return
	}

	ma, foundA := st.Graph.NodeData(a)
	mb, foundB := st.Graph.NodeData(b)
	if !foundA || !foundB {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Movie not found", nil)
		return
	}

	br := h.scorer.Explain(&ma, &mb)
	out := Explanation{A: a, B: b, Breakdown: br, Total: br.Total()}
	for _, n := range st.Graph.Neighbors(a) {
		if n.ID == b {
			out.Linked = true
			out.Weight = n.Weight
			break
		}
	}
	respondData(w, r, start, out)
}

func (h *Handler) requireGraph(w http.ResponseWriter, r *http.Request) (*GraphState, bool) {
	st := h.State()
	if st == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Graph not loaded", nil)
		return nil, false
	}
	return st, true
}

// validateRequest writes a 400 with field details when v fails validation.
func validateRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	respondErrorDetails(w, r, http.StatusBadRequest, validation.ErrorCode, verr.Error(), verr.Details(), nil)
	return false
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Movie id must be an integer", err)
		return 0, false
	}
	return id, true
}

func views(g graph.Graph[int], neighbors []graph.Neighbor[int]) []NeighborView {
	out := make([]NeighborView, len(neighbors))
	for i, n := range neighbors {
		out[i] = NeighborView{ID: n.ID, Weight: n.Weight, Title: title(g, n.ID)}
	}
	return out
}

func title(g graph.Graph[int], id int) string {
	m, _ := g.NodeData(id)
	return m.Title
}
