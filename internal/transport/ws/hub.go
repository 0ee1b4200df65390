package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection represents one client's WebSocket session in a room.
type Connection struct {
	RoomKey string
	ID      string
	Send    chan []byte
}

// Hub manages the per-room connection registry and fan-out. It
// implements service.Broadcaster; slow consumers have messages dropped
// rather than blocking the rest of the room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Connection // roomKey -> connID -> conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Connection)}
}

// Register adds a connection to its room.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[conn.RoomKey] == nil {
		h.rooms[conn.RoomKey] = make(map[string]*Connection)
	}
	h.rooms[conn.RoomKey][conn.ID] = conn
	log.Printf("ws: connection %s registered in room %s", conn.ID, conn.RoomKey)
}

// Unregister removes a connection and closes its send channel.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[conn.RoomKey]
	if !ok {
		return
	}
	if existing, ok := conns[conn.ID]; ok && existing == conn {
		delete(conns, conn.ID)
		close(conn.Send)
		log.Printf("ws: connection %s unregistered from room %s", conn.ID, conn.RoomKey)
	}
	if len(conns) == 0 {
		delete(h.rooms, conn.RoomKey)
	}
}

// Broadcast sends an event to every connection in a room (implements
// service.Broadcaster).
func (h *Hub) Broadcast(roomKey, event string, payload interface{}) {
	data := encode(event, payload)
	if data == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.rooms[roomKey] {
		select {
		case conn.Send <- data:
		default:
			// Drop message if buffer full
		}
	}
}

// SendTo sends an event to a single connection (implements
// service.Broadcaster).
func (h *Hub) SendTo(roomKey, connID, event string, payload interface{}) {
	data := encode(event, payload)
	if data == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if conn, ok := h.rooms[roomKey][connID]; ok {
		select {
		case conn.Send <- data:
		default:
		}
	}
}

// CloseRoom drops every connection in a room; used when the room is
// evicted so stale clients cannot resurrect it.
func (h *Hub) CloseRoom(roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.rooms[roomKey] {
		close(conn.Send)
	}
	delete(h.rooms, roomKey)
}

func encode(event string, payload interface{}) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshal %s payload: %v", event, err)
		return nil
	}
	data, err := json.Marshal(&Message{Type: event, Payload: body})
	if err != nil {
		log.Printf("ws: marshal %s envelope: %v", event, err)
		return nil
	}
	return data
}
