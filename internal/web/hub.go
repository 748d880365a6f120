// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/HeyZhuang/NMEA-Inspector/internal/gps"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Message is what /ws clients receive.
type Message struct {
	Type     string        `json:"type"` // hello, snapshot
	Session  string        `json:"session,omitempty"`
	Snapshot *gps.Snapshot `json:"snapshot,omitempty"`
}

// Hub fans snapshots out to websocket clients. The latest snapshot is
// kept so new clients get an immediate sample.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]chan []byte
	last     []byte
	haveLast bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan []byte)}
}

// Publish sends s to every connected client. Slow clients miss updates
// instead of blocking the caller.
func (h *Hub) Publish(s gps.Snapshot) {
	payload, err := json.Marshal(Message{Type: "snapshot", Snapshot: &s})
	if err != nil {
		log.Printf("web: snapshot marshal error: %v", err)
		return
	}

	h.mu.Lock()
	h.last = payload
	h.haveLast = true
	subs := make([]chan []byte, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) subscribe(id string) <-chan []byte {
	ch := make(chan []byte, 4)
	h.mu.Lock()
	h.subs[id] = ch
	if h.haveLast {
		ch <- h.last
	}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// ServeWS upgrades the request and streams snapshots until the client
// goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	if err := conn.WriteJSON(Message{Type: "hello", Session: id}); err != nil {
		return
	}
	ch := h.subscribe(id)
	defer h.unsubscribe(id)
	log.Printf("web: websocket client %s connected", id)

	// Reads only detect the close; clients have nothing to send.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket client %s error: %v", id, err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			log.Printf("web: websocket client %s disconnected", id)
			return
		case payload := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("web: websocket client %s write error: %v", id, err)
				return
			}
		}
	}
}
