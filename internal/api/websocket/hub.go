package websocket

import (
	"context"
	"sync"
)

type delivery struct {
	client *Client
	data   []byte
}

// Hub tracks connected clients and serializes every write to their send
// queues, so a queue is never written after it has been closed.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan delivery
	done       chan struct{}

	mu    sync.RWMutex
	count int
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		direct:     make(chan delivery, 64),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and messages until ctx is done, then closes
// every client queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.setCount()

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				h.deliver(c, msg)
			}

		case d := <-h.direct:
			if h.clients[d.client] {
				h.deliver(d.client, d.data)
			}
		}
	}
}

// deliver queues msg for c, dropping the client if it cannot keep up.
func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount()
}

func (h *Hub) setCount() {
	h.mu.Lock()
	h.count = len(h.clients)
	h.mu.Unlock()
}

// Register adds c. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its queue. Unknown clients are ignored.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues data for every connected client.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// Send queues data for one client.
func (h *Hub) Send(c *Client, data []byte) {
	select {
	case h.direct <- delivery{client: c, data: data}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
