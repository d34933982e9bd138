package ws

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

const clientSendBuffer = 16

// Hub fans snapshot broadcasts out to every connected client. Clients that
// cannot keep up are dropped rather than allowed to stall the loop.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
}

// writePump serializes all writes to the connection.
func (c *client) writePump() {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go c.writePump()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if present {
		c.close()
	}
}

// Broadcast queues data on every client, dropping clients whose buffers are
// full.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	stalled := make([]*client, 0)
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			stalled = append(stalled, c)
			delete(h.clients, c)
		}
	}
	h.mu.Unlock()
	for _, c := range stalled {
		h.logger.Printf("dropping stalled client")
		c.close()
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
