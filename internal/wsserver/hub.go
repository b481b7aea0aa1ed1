package wsserver

import "sync"

// Hub is the process-wide registry of connected clients, keyed by room then
// player id (spec.md §5 "Egress connection map: per-room lock; reads
// (broadcast) and writes (register/deregister) contend").
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Connection
}

func newHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]*Connection)}
}

func (h *Hub) register(roomID, playerID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[roomID]
	if !ok {
		clients = make(map[string]*Connection)
		h.rooms[roomID] = clients
	}
	clients[playerID] = conn
}

func (h *Hub) unregister(roomID, playerID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if clients[playerID] == conn {
		delete(clients, playerID)
	}
	if len(clients) == 0 {
		delete(h.rooms, roomID)
	}
}

// connections returns a snapshot of every connection currently registered
// for roomID.
func (h *Hub) connections(roomID string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := h.rooms[roomID]
	out := make([]*Connection, 0, len(clients))
	for _, c := range clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) get(roomID, playerID string) (*Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.rooms[roomID][playerID]
	return conn, ok
}
