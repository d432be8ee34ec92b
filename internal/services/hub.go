package services

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event is one refresh notification pushed to connected clients.
type Event struct {
	Type  string      `json:"type"` // "odds_refreshed", "schedule_refreshed", "opportunity_alert"
	Sport string      `json:"sport,omitempty"`
	Count int         `json:"count,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub fans refresh events out to websocket subscribers. Connections are
// write-only from the server's point of view; client messages are drained
// and dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*hubClient
	logger  *logrus.Logger
}

type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*hubClient),
		logger:  logger,
	}
}

// Register adds a connection and starts its writer pump. The returned ID is
// used to unregister.
func (h *Hub) Register(conn *websocket.Conn) string {
	client := &hubClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Event, 16),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	go h.writePump(client)
	go h.readPump(client)

	h.logger.Debugf("WebSocket client %s connected (%d total)", client.id, h.ClientCount())
	return client.id
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		close(client.send)
		client.conn.Close()
	}
}

// Broadcast queues an event for every connected client. Slow clients drop
// events rather than block the caller.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- event:
		default:
			h.logger.Warnf("WebSocket client %s send buffer full, dropping event", client.id)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writePump(client *hubClient) {
	for event := range client.send {
		if err := client.conn.WriteJSON(event); err != nil {
			h.logger.Debugf("WebSocket write to %s failed: %v", client.id, err)
			h.Unregister(client.id)
			return
		}
	}
}

func (h *Hub) readPump(client *hubClient) {
	defer h.Unregister(client.id)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
