package wshub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/coder/websocket"
)

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type   string `json:"t"`
	Square string `json:"sq,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type     string `json:"t"`
	Square   string `json:"sq,omitempty"`
	Correct  *bool  `json:"ok,omitempty"`
	Feedback string `json:"fb,omitempty"`
	Score    int    `json:"s,omitempty"`
	Attempts int    `json:"a,omitempty"`
	TimeLeft int    `json:"tl,omitempty"`
	State    string `json:"st,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub manages the live training feed connections for one user context. A user
// may have several tabs open; each gets its own client entry.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.Send)
		delete(h.clients, c)
	}
}

// Broadcast sends a message to every connected client. Non-blocking: drops if
// a client's channel is full.
func (h *Hub) Broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}
