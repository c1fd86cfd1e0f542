package http

import (
	"log/slog"
	"sync"

	"github.com/XianPaz/quizchain/internal/app"
)

const sendBuffer = 32

// Hub tracks live connections and their room memberships. It implements app.Notifier.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[string]chan app.Notification // connID -> outbound queue
	rooms   map[string]map[string]struct{}   // roomCode -> connIDs
	member  map[string]string                // connID -> roomCode
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]chan app.Notification),
		rooms:   make(map[string]map[string]struct{}),
		member:  make(map[string]string),
	}
}

// Register adds a connection and returns the queue its writer drains.
func (h *Hub) Register(connID string) <-chan app.Notification {
	ch := make(chan app.Notification, sendBuffer)
	h.mu.Lock()
	h.clients[connID] = ch
	h.mu.Unlock()
	return ch
}

// Unregister removes the connection from its room and closes its queue.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(connID)
	if ch, ok := h.clients[connID]; ok {
		delete(h.clients, connID)
		close(ch)
	}
}

// Subscribe moves the connection into roomCode. A connection belongs to at most one room.
func (h *Hub) Subscribe(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; !ok {
		return
	}
	h.leaveLocked(connID)
	members, ok := h.rooms[roomCode]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomCode] = members
	}
	members[connID] = struct{}{}
	h.member[connID] = roomCode
}

func (h *Hub) Broadcast(roomCode string, n app.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[roomCode] {
		h.enqueueLocked(connID, n)
	}
}

func (h *Hub) Send(connID string, n app.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.enqueueLocked(connID, n)
}

func (h *Hub) DropRoom(roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connID := range h.rooms[roomCode] {
		delete(h.member, connID)
	}
	delete(h.rooms, roomCode)
}

// RoomSize reports how many connections are subscribed to roomCode.
func (h *Hub) RoomSize(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

func (h *Hub) leaveLocked(connID string) {
	code, ok := h.member[connID]
	if !ok {
		return
	}
	delete(h.member, connID)
	if members, ok := h.rooms[code]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// enqueueLocked never blocks: a full queue means the client is not keeping up and the
// message is dropped for that client only.
func (h *Hub) enqueueLocked(connID string, n app.Notification) {
	ch, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case ch <- n:
	default:
		h.log.Warn("dropping notification for slow client", "conn", connID, "type", n.Type)
	}
}
