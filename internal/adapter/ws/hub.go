// Package ws pushes render frames to connected map frontends over
// WebSocket. The hub implements the poll controller's Renderer contract:
// event frames carry the encoded visible set, fit_bounds frames carry
// viewport requests. Slow clients have frames dropped rather than ever
// blocking the controller.
package ws

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/quakesight/quake-map-service/internal/domain"
	"github.com/quakesight/quake-map-service/internal/observability"
)

// Frame types understood by the map frontend.
const (
	FrameTypeEvents    = "events"
	FrameTypeFitBounds = "fit_bounds"
)

// Frame is one WebSocket message to the render collaborator.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ViewSource supplies the current render frame for newly connected clients.
type ViewSource interface {
	CurrentView() domain.EventView
}

// Hub maintains the set of connected clients and broadcasts frames to them.
type Hub struct {
	logger   *slog.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]bool
	closed  bool
}

// NewHub creates a Hub accepting the given browser origins; "*" accepts any.
func NewHub(logger *slog.Logger, metrics *observability.Metrics, allowedOrigins []string) *Hub {
	h := &Hub{
		logger:  logger,
		metrics: metrics,
		clients: make(map[*Client]bool),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		return set[r.Header.Get("Origin")]
	}
}

// RenderEvents broadcasts the visible set to every connected client.
func (h *Hub) RenderEvents(view domain.EventView) {
	h.broadcast(Frame{Type: FrameTypeEvents, Data: view})
}

// FitBounds broadcasts a viewport bound-fit request.
func (h *Hub) FitBounds(req domain.FitRequest) {
	h.broadcast(Frame{Type: FrameTypeFitBounds, Data: req})
}

func (h *Hub) broadcast(frame Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.enqueue(frame)
	}
}

// Handler upgrades an HTTP request to a WebSocket connection and serves
// frames until the client disconnects. The current view is queued
// immediately so the map is populated before the next poll cycle.
func (h *Hub) Handler(source ViewSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}

		client := newClient(h, conn)
		if !h.register(client) {
			_ = conn.Close()
			return
		}

		view := source.CurrentView()
		client.enqueue(Frame{Type: FrameTypeEvents, Data: view})
		if fit, ok := domain.FitForMarkers(view.Markers); ok {
			client.enqueue(Frame{Type: FrameTypeFitBounds, Data: fit})
		}

		go client.writePump()
		go client.readPump()
	}
}

// Close disconnects every client. Used on shutdown; the hub accepts no new
// clients afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.metrics.WebsocketClients.Set(0)
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = true
	h.metrics.WebsocketClients.Set(float64(len(h.clients)))
	h.logger.Info("websocket client connected", "total_clients", len(h.clients))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.WebsocketClients.Set(float64(len(h.clients)))
	h.logger.Info("websocket client disconnected", "total_clients", len(h.clients))
}
