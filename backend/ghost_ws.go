package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/frengor/cadregabot/engine"
	"github.com/gorilla/websocket"
)

type ghostCell struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Player int `json:"player"`
}

// ghostPayload is one frame of live search telemetry.
type ghostPayload struct {
	Mode       string     `json:"mode,omitempty"`
	Best       *ghostCell `json:"best,omitempty"`
	Depth      int        `json:"depth,omitempty"`
	Score      int32      `json:"score,omitempty"`
	Nodes      int64      `json:"nodes,omitempty"`
	ElapsedMs  float64    `json:"elapsed_ms,omitempty"`
	NextPlayer int        `json:"next_player,omitempty"`
	HistoryLen int        `json:"history_len,omitempty"`
	Active     bool       `json:"active"`
	Final      bool       `json:"final,omitempty"`
}

func ghostFromProgress(p engine.Progress, player, historyLen int) ghostPayload {
	return ghostPayload{
		Mode:       "best_move",
		Best:       &ghostCell{Row: p.Best.Row, Col: p.Best.Col, Player: player},
		Depth:      p.Depth,
		Score:      p.Score,
		Nodes:      p.Nodes,
		ElapsedMs:  float64(p.Elapsed.Microseconds()) / 1000,
		NextPlayer: player,
		HistoryLen: historyLen,
		Active:     !p.Final,
		Final:      p.Final,
	}
}

type GhostClient struct {
	hub  *GhostHub
	conn *websocket.Conn
	send chan []byte
}

type GhostHub struct {
	mu        sync.Mutex
	clients   map[*GhostClient]struct{}
	broadcast chan ghostPayload
}

func NewGhostHub() *GhostHub {
	return &GhostHub{
		clients:   make(map[*GhostClient]struct{}),
		broadcast: make(chan ghostPayload, 32),
	}
}

func (h *GhostHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "ghost", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

func (h *GhostHub) Register(c *GhostClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Publish never blocks the search goroutine; frames are dropped when the hub
// falls behind.
func (h *GhostHub) Publish(payload ghostPayload) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *GhostHub) Unregister(c *GhostClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *GhostHub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *GhostClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveGhostWS(hub *GhostHub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &GhostClient{hub: hub, conn: conn, send: make(chan []byte, 16)}
	hub.Register(client)

	go func() {
		defer conn.Close()
		_ = writeWSWithHeartbeat(conn, client.send)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}
