package relay

import (
	"encoding/json"
	"log/slog"
	"time"
)

const (
	chatBurst  = 5
	chatWindow = 3 * time.Second
)

// Router validates inbound envelopes and dispatches them to the hub, always
// excluding the sender from the rebroadcast. Unknown events and malformed
// payloads are logged and dropped; nothing a client sends can take the
// relay down.
//
// The router deliberately does not check that a sender actually joined the
// room an event names: membership is trusted from the join-room call.
type Router struct {
	hub         *Hub
	registry    *Registry
	metrics     *Metrics
	chatLimiter *RateLimiter
}

func NewRouter(hub *Hub, registry *Registry, metrics *Metrics) *Router {
	return &Router{
		hub:         hub,
		registry:    registry,
		metrics:     metrics,
		chatLimiter: NewRateLimiter(chatBurst, chatWindow),
	}
}

// HandleMessage processes one inbound frame to completion.
func (rt *Router) HandleMessage(conn Conn, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		rt.drop(conn, "", "malformed envelope", err)
		return
	}
	if env.Room == "" {
		rt.drop(conn, env.Event, "missing room id", nil)
		return
	}

	switch env.Event {
	case EventJoinRoom:
		var payload JoinPayload
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				rt.drop(conn, env.Event, "bad join payload", err)
				return
			}
		}
		roster := rt.hub.Join(env.Room, conn, payload.DisplayName)
		rt.sendTo(conn, EventRoomJoined, env.Room, RoomState{Room: env.Room, Members: roster})

	case EventLeaveRoom:
		rt.hub.Leave(env.Room, conn.ID())

	case EventSendMessage:
		if !rt.chatLimiter.Allow(conn.ID()) {
			slog.Debug("chat rate limit", "connId", conn.ID(), "room", env.Room)
			rt.metrics.IncDropped()
			return
		}
		var msg ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			rt.drop(conn, env.Event, "bad chat payload", err)
			return
		}
		// Relay the sender's bytes untouched so every recipient sees the
		// exact same payload.
		rt.hub.Broadcast(env.Room, Envelope{Event: EventReceiveMessage, Room: env.Room, Data: env.Data}, conn.ID())

	case EventPlayTrack:
		var track Track
		if err := json.Unmarshal(env.Data, &track); err != nil {
			rt.drop(conn, env.Event, "bad track payload", err)
			return
		}
		rt.hub.Broadcast(env.Room, Envelope{Event: EventTrackChanged, Room: env.Room, Data: env.Data}, conn.ID())

	case EventPauseTrack:
		rt.hub.Broadcast(env.Room, Envelope{Event: EventTrackPaused, Room: env.Room}, conn.ID())

	case EventResumeTrack:
		rt.hub.Broadcast(env.Room, Envelope{Event: EventTrackResumed, Room: env.Room}, conn.ID())

	case EventSeekTrack:
		var seek SeekPayload
		if err := json.Unmarshal(env.Data, &seek); err != nil {
			rt.drop(conn, env.Event, "bad seek payload", err)
			return
		}
		if seek.Time < 0 {
			rt.drop(conn, env.Event, "negative seek time", nil)
			return
		}
		// The raw value is relayed as-is; there is no bounds check against
		// the track duration.
		rt.hub.Broadcast(env.Room, Envelope{Event: EventTrackSeeked, Room: env.Room, Data: env.Data}, conn.ID())

	case EventAddToQueue:
		var track Track
		if err := json.Unmarshal(env.Data, &track); err != nil {
			rt.drop(conn, env.Event, "bad track payload", err)
			return
		}
		rt.broadcastAs(conn, env.Room, EventQueueUpdated, QueueUpdate{Action: QueueActionAdd, Track: &track})

	case EventRemoveFromQueue:
		var payload RemovePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			rt.drop(conn, env.Event, "bad remove payload", err)
			return
		}
		if payload.TrackID == "" {
			rt.drop(conn, env.Event, "missing track id", nil)
			return
		}
		rt.broadcastAs(conn, env.Room, EventQueueUpdated, QueueUpdate{Action: QueueActionRemove, TrackID: payload.TrackID})

	default:
		rt.drop(conn, env.Event, "unknown event", nil)
	}
}

// HandleDisconnect detaches a connection when its transport reports EOF or
// a liveness timeout. Remaining members see a single user-left.
func (rt *Router) HandleDisconnect(conn Conn) {
	rt.hub.Drop(conn.ID())
	rt.chatLimiter.Forget(conn.ID())
	rt.metrics.DecConn()
}

func (rt *Router) broadcastAs(conn Conn, roomID string, event EventType, payload any) {
	env, err := NewEnvelope(event, roomID, payload)
	if err != nil {
		slog.Warn("outbound marshal failed", "event", event, "room", roomID, "error", err)
		return
	}
	rt.hub.Broadcast(roomID, env, conn.ID())
}

func (rt *Router) sendTo(conn Conn, event EventType, roomID string, payload any) {
	env, err := NewEnvelope(event, roomID, payload)
	if err != nil {
		slog.Warn("outbound marshal failed", "event", event, "room", roomID, "error", err)
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := conn.Send(data); err != nil {
		go rt.hub.Drop(conn.ID())
	}
}

func (rt *Router) drop(conn Conn, event EventType, reason string, err error) {
	rt.metrics.IncDropped()
	slog.Warn("dropped event", "connId", conn.ID(), "event", event, "reason", reason, "error", err)
}
