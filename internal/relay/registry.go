package relay

import "sync"

// Registry tracks live connections and which room each one has joined.
// Room assignment is written by the hub so the two stay consistent: a
// connection's room entry here always points at a room that lists it as a
// member.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
	rooms map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Conn),
		rooms: make(map[string]string),
	}
}

// Register records a freshly handshaken connection. No side effects beyond
// bookkeeping.
func (reg *Registry) Register(conn Conn) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.conns[conn.ID()] = conn
}

// Unregister drops the bookkeeping for a connection. Safe to call on an id
// that was already removed.
func (reg *Registry) Unregister(connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.conns, connID)
	delete(reg.rooms, connID)
}

// Get looks up a connection by id. A missing id means the connection is
// already gone and callers treat it as a no-op.
func (reg *Registry) Get(connID string) (Conn, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	conn, ok := reg.conns[connID]
	return conn, ok
}

// RoomOf returns the room the connection currently belongs to, if any.
func (reg *Registry) RoomOf(connID string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[connID]
	return room, ok
}

// Count returns the number of registered connections.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.conns)
}

// setRoom records the room assignment and reports whether it stuck; it
// refuses connections that were already unregistered so a join racing a
// drop cannot resurrect them.
func (reg *Registry) setRoom(connID, roomID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.conns[connID]; !ok {
		return false
	}
	reg.rooms[connID] = roomID
	return true
}

func (reg *Registry) clearRoom(connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, connID)
}
