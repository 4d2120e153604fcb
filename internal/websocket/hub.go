// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package websocket pushes graph lifecycle events to connected clients.
//
// A Hub owns the set of clients and fans out broadcasts; each Client runs a
// read pump (answering "ping" with "pong") and a write pump. The serve
// command broadcasts graph_loaded whenever a new snapshot is swapped in, so
// dashboards can refetch without polling.
//
//	{"type": "graph_loaded", "data": {"nodes": 4800, "edges": 91234, "version": 7, ...}}
package websocket

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/cinegraph/internal/logging"
)

// Message types.
const (
	MessageTypeGraphLoaded = "graph_loaded"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is the envelope of every frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// GraphLoadedData is the payload of graph_loaded.
type GraphLoadedData struct {
	Timestamp  string `json:"timestamp"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	Name       string `json:"name,omitempty"`
	Version    int    `json:"version,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub. It does nothing until RunWithContext is called.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// RunWithContext processes registrations and broadcasts until ctx is done,
// then closes every client and returns ctx.Err(). It may be called again
// after it returns, which lets a supervisor restart it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Lifecycle events first so a broadcast never races a registration.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
			continue
		case c := <-h.unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

// Register hands c to the running hub. It gives up when ctx is done.
func (h *Hub) Register(ctx context.Context, c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unregister removes c. It gives up after writeWait so a client that
// outlives a stopped hub does not block forever.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-time.After(writeWait):
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	logging.Debug().Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.Debug().Int("total_clients", n).Msg("websocket client disconnected")
}

// sorted returns the clients in id order. Caller holds mu.
func (h *Hub) sorted() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	slices.SortFunc(clients, func(a, b *Client) int { return cmp.Compare(a.id, b.id) })
	return clients
}

// broadcastToClients delivers msg in client id order. A client whose send
// buffer is full is dropped.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sorted() {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	n := len(h.clients)
	for _, c := range h.sorted() {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	logging.Info().Str("component", "websocket-hub").Int("clients_closed", n).Msg("websocket hub stopped")
}

// Broadcast queues msg for every client. It never blocks; when the queue
// is full the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logging.Warn().Str("message_type", msg.Type).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastGraphLoaded announces a newly served graph.
func (h *Hub) BroadcastGraphLoaded(data GraphLoadedData) {
	if data.Timestamp == "" {
		data.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	h.Broadcast(Message{Type: MessageTypeGraphLoaded, Data: data})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
