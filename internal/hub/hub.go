// Package hub tracks live WebSocket connections and fans notifications out
// to them.
package hub

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one WebSocket connection. All writes go through SendJSON so
// that replies and broadcasts never interleave on the wire; gorilla permits
// only one concurrent writer per connection.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) SendJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub is the registry of currently connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func New() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends v to every registered client, best effort. Clients whose
// write fails are skipped silently; no queuing, retry, or delivery
// acknowledgment. Returns delivered and skipped counts.
func (h *Hub) Broadcast(v any) (delivered, skipped int) {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		if err := c.SendJSON(v); err != nil {
			skipped++
			continue
		}
		delivered++
	}
	return delivered, skipped
}
