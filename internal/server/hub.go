// Package server exposes the detection engine over HTTP: a one-shot
// detect endpoint, inspection endpoints for expected positions and ROI
// bounds, a Prometheus metrics endpoint, and a websocket stream that
// broadcasts each frame's results to connected operator stations.
// Adapted from the reference corpus's gin-plus-gorilla-websocket API
// layer, trimmed to a single-engine, no-persistence service.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mauroandres1246/align-press-2/internal/detect"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FrameEvent is one detect pass broadcast to every connected stream client.
type FrameEvent struct {
	FrameID string              `json:"frame_id"`
	Results []detect.LogoResult `json:"results"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans each detect event out to every connected websocket client.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
}

// NewHub builds an idle Hub; call Run in a goroutine before serving.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run is the hub's event loop; it never returns.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, c)
					close(c.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a frame's detection results to every connected client.
func (h *Hub) Broadcast(results []detect.LogoResult) {
	event := FrameEvent{FrameID: uuid.NewString(), Results: results}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("server: marshal frame event: %v", err)
		return
	}
	h.broadcast <- data
}

// HandleStream upgrades the request to a websocket and registers the
// resulting client with the hub.
func (h *Hub) HandleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("server: ws upgrade failed: %v", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, 64)}
	h.register <- cl

	go cl.writePump()
	go cl.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
