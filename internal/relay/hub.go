package relay

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"
)

type member struct {
	conn Conn
	name string
}

type room struct {
	key     string
	members map[string]*member
}

// Hub owns room membership and the join/leave/broadcast primitives. Rooms
// are created by the first join and removed when the last member leaves;
// the relay never keeps an empty room around.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]*room
	registry *Registry
	metrics  *Metrics
}

func NewHub(registry *Registry, metrics *Metrics) *Hub {
	return &Hub{
		rooms:    make(map[string]*room),
		registry: registry,
		metrics:  metrics,
	}
}

// Join adds the connection to the room's member set, creating the room if
// needed, and notifies the other members. Joining a room the connection is
// already a member of is a no-op and does not re-trigger the notification.
// The returned roster includes the joiner.
func (h *Hub) Join(roomID string, conn Conn, displayName string) []Member {
	// a connection belongs to at most one room; switching rooms is an
	// implicit leave
	if prev, ok := h.registry.RoomOf(conn.ID()); ok && prev != roomID {
		h.Leave(prev, conn.ID())
	}

	h.mu.Lock()
	// the registry write happens under the hub lock so membership and the
	// registry's room index cannot diverge; a connection dropped mid-join
	// is refused instead of becoming an orphaned member
	if !h.registry.setRoom(conn.ID(), roomID) {
		h.mu.Unlock()
		slog.Debug("join refused, connection already detached", "room", roomID, "connId", conn.ID())
		return nil
	}
	r, exists := h.rooms[roomID]
	if !exists {
		r = &room{key: roomID, members: make(map[string]*member)}
		h.rooms[roomID] = r
	}
	if _, already := r.members[conn.ID()]; already {
		roster := r.roster()
		h.mu.Unlock()
		return roster
	}
	r.members[conn.ID()] = &member{conn: conn, name: displayName}
	roster := r.roster()
	count := len(r.members)
	h.mu.Unlock()

	h.metrics.IncJoin()
	slog.Info("member joined", "room", roomID, "connId", conn.ID(), "name", displayName, "members", count)

	env, err := NewEnvelope(EventUserJoined, roomID, Presence{
		UserID:    conn.ID(),
		Username:  displayName,
		Timestamp: time.Now().UTC(),
	})
	if err == nil {
		h.Broadcast(roomID, env, conn.ID())
	}
	return roster
}

// Leave removes the connection from the room and notifies the remaining
// members. Leaving a room the connection never joined is a no-op. The room
// itself is deleted once its member set is empty.
func (h *Hub) Leave(roomID, connID string) {
	h.mu.Lock()
	r, exists := h.rooms[roomID]
	if !exists {
		h.mu.Unlock()
		return
	}
	if _, ok := r.members[connID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(r.members, connID)
	count := len(r.members)
	if count == 0 {
		delete(h.rooms, roomID)
	}
	h.registry.clearRoom(connID)
	h.mu.Unlock()

	slog.Info("member left", "room", roomID, "connId", connID, "members", count)
	if count == 0 {
		slog.Info("room removed", "room", roomID)
		return
	}

	env, err := NewEnvelope(EventUserLeft, roomID, Presence{
		UserID:    connID,
		Timestamp: time.Now().UTC(),
	})
	if err == nil {
		h.Broadcast(roomID, env, connID)
	}
}

// Broadcast sends the envelope to every member of the room except the
// excluded sender. A missing or empty room is not an error: the last member
// may have disconnected since the sender's last known state.
func (h *Hub) Broadcast(roomID string, env Envelope, excludeID string) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Warn("broadcast marshal failed", "room", roomID, "event", env.Event, "error", err)
		return
	}

	h.mu.RLock()
	r, exists := h.rooms[roomID]
	if !exists {
		h.mu.RUnlock()
		slog.Debug("broadcast to absent room", "room", roomID, "event", env.Event)
		return
	}
	var stale []string
	for id, m := range r.members {
		if id == excludeID {
			continue
		}
		if err := m.conn.Send(data); err != nil {
			stale = append(stale, id)
			continue
		}
		h.metrics.IncRelayed()
	}
	h.mu.RUnlock()

	// A failed send means the transport is gone or hopelessly backed up;
	// detach those members outside the read lock.
	for _, id := range stale {
		go h.Drop(id)
	}
}

// MembersOf returns the current roster of a room, or nil when the room does
// not exist.
func (h *Hub) MembersOf(roomID string) []Member {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, exists := h.rooms[roomID]
	if !exists {
		return nil
	}
	return r.roster()
}

// Drop detaches a connection entirely: it leaves whatever room it was in
// (broadcasting user-left), closes the transport, and clears the registry.
func (h *Hub) Drop(connID string) {
	roomID, ok := h.registry.RoomOf(connID)
	if !ok {
		// the registry index can lag a racing drop; the member map is
		// authoritative
		roomID, ok = h.roomOfMember(connID)
	}
	if ok {
		h.Leave(roomID, connID)
	}
	if conn, ok := h.registry.Get(connID); ok {
		_ = conn.Close()
	}
	h.registry.Unregister(connID)
}

func (h *Hub) roomOfMember(connID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, r := range h.rooms {
		if _, ok := r.members[connID]; ok {
			return id, true
		}
	}
	return "", false
}

// Stats reports current room and member counts.
func (h *Hub) Stats() (rooms, members int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms = len(h.rooms)
	for _, r := range h.rooms {
		members += len(r.members)
	}
	return rooms, members
}

func (r *room) roster() []Member {
	roster := make([]Member, 0, len(r.members))
	for id, m := range r.members {
		roster = append(roster, Member{ID: id, Username: m.name})
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })
	return roster
}
