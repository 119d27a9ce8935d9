// Package livereload tells open browser tabs to reload when content files
// change on disk.
package livereload

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/matthewriabinin/blog/pkg/vdom"
)

// Message types
const (
	TypeHello  = "HELLO"
	TypeAck    = "ACK"
	TypeReload = "RELOAD"
)

// Hub keeps the websocket connections of open pages
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			// Live reload only runs in development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.With("component", "livereload"),
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades the connection and keeps it until the client leaves
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", "error", err)
			}
			return
		}

		switch msg["type"] {
		case TypeHello:
			h.send(conn, map[string]interface{}{"type": TypeAck})
		default:
			h.logger.Debug("unknown message type", "type", msg["type"])
		}
	}
}

// send serialises writes; a connection allows one writer at a time
func (h *Hub) send(conn *websocket.Conn, message map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteJSON(message); err != nil {
		h.logger.Debug("failed to send message to client", "error", err)
	}
}

// Broadcast sends a message of msgType with data to every client
func (h *Hub) Broadcast(msgType string, data map[string]interface{}) {
	message := map[string]interface{}{
		"type": strings.ToUpper(msgType),
	}
	for k, v := range data {
		message[k] = v
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if err := client.WriteJSON(message); err != nil {
			h.logger.Debug("failed to send message to client", "error", err)
		}
	}
}

// Reload asks every client to reload, naming the changed files
func (h *Hub) Reload(paths []string) {
	h.logger.Info("content changed, reloading", "files", len(paths), "clients", h.Clients())
	h.Broadcast(TypeReload, map[string]interface{}{"paths": paths})
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Script returns the client side of the protocol, to be placed in <head>.
// path is where the hub is mounted.
func Script(path string) *vdom.VNode {
	js := `(function(){` +
		`var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"` + path + `");` +
		`ws.onopen=function(){ws.send(JSON.stringify({type:"` + TypeHello + `"}))};` +
		`ws.onmessage=function(e){var m=JSON.parse(e.data);if(m.type==="` + TypeReload + `")location.reload()};` +
		`})();`
	return vdom.NewElement("script", nil, vdom.NewText(js))
}
