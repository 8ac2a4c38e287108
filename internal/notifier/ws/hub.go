package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeTimeout = 5 * time.Second

// Connection wraps a websocket.Conn with its owner and a write lock
// (gorilla allows one concurrent writer per connection).
type Connection struct {
	conn   *websocket.Conn
	userID uuid.UUID
	mu     sync.Mutex
}

func (c *Connection) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub tracks open connections per user. Delivery is fire-and-forget: a user
// with no open connection simply misses the frame.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]map[*Connection]struct{}
	logger      zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]map[*Connection]struct{}),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Add registers a connection for a user.
func (h *Hub) Add(userID uuid.UUID, conn *websocket.Conn) *Connection {
	c := &Connection{conn: conn, userID: userID}

	h.mu.Lock()
	if _, ok := h.connections[userID]; !ok {
		h.connections[userID] = make(map[*Connection]struct{})
	}
	h.connections[userID][c] = struct{}{}
	total := len(h.connections[userID])
	h.mu.Unlock()

	h.logger.Debug().Str("user_id", userID.String()).Int("connections", total).Msg("ws connected")
	return c
}

// Remove closes and unregisters a connection.
func (h *Hub) Remove(c *Connection) {
	h.mu.Lock()
	if conns, ok := h.connections[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.connections, c.userID)
		}
	}
	h.mu.Unlock()

	_ = c.conn.Close()
	h.logger.Debug().Str("user_id", c.userID.String()).Msg("ws disconnected")
}

// Send writes v to every open connection of the user. Write failures evict
// the connection; they are never surfaced to the caller.
func (h *Hub) Send(userID uuid.UUID, v interface{}) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections[userID]))
	for c := range h.connections[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(v); err != nil {
			h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("ws write failed, evicting connection")
			h.Remove(c)
		}
	}
}

// ConnectionCount reports open connections for a user.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// TotalConnections reports all open connections across users.
func (h *Hub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}
