package session

import (
	"encoding/json"
	"errors"

	"tuneroom/internal/relay"
)

// Status describes the channel's connection state, surfaced to the UI as a
// connection indicator.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusOffline
	// StatusLocal marks the loopback channel: chat and queue keep working
	// for this user alone, nothing is relayed.
	StatusLocal
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusOffline:
		return "offline"
	case StatusLocal:
		return "local"
	default:
		return "unknown"
	}
}

// EventStatusChanged is a channel-local event type: it never travels the
// wire, it tells the consumer the connection status flipped.
const EventStatusChanged relay.EventType = "status-changed"

// Event is a decoded inbound event. Exactly one payload field is set,
// matching Type.
type Event struct {
	Type     relay.EventType
	Room     string
	Message  *relay.ChatMessage
	Track    *relay.Track
	Seek     float64
	Queue    *relay.QueueUpdate
	Presence *relay.Presence
	Roster   *relay.RoomState
	Status   *Status
}

// ErrOffline is returned by emit operations when the channel has no live
// transport underneath.
var ErrOffline = errors.New("room channel is offline")

// RoomChannel is the capability the rest of the client is handed: either a
// networked websocket channel or a local loopback, selected at
// construction time.
type RoomChannel interface {
	JoinRoom(roomID, displayName string) error
	LeaveRoom() error
	SendMessage(msg relay.ChatMessage) error
	PlayTrack(track relay.Track) error
	PauseTrack() error
	ResumeTrack() error
	SeekTrack(seconds float64) error
	AddToQueue(track relay.Track) error
	RemoveFromQueue(trackID string) error
	Events() <-chan Event
	Status() Status
	Close() error
}

// decodeEvent turns a wire envelope into a typed Event. Unknown event names
// and payloads that fail to decode yield a nil event; the caller skips them.
func decodeEvent(env relay.Envelope) *Event {
	ev := &Event{Type: env.Event, Room: env.Room}
	switch env.Event {
	case relay.EventReceiveMessage:
		var msg relay.ChatMessage
		if json.Unmarshal(env.Data, &msg) != nil {
			return nil
		}
		ev.Message = &msg
	case relay.EventTrackChanged:
		var track relay.Track
		if json.Unmarshal(env.Data, &track) != nil {
			return nil
		}
		ev.Track = &track
	case relay.EventTrackPaused, relay.EventTrackResumed:
		// no payload
	case relay.EventTrackSeeked:
		var seek relay.SeekPayload
		if json.Unmarshal(env.Data, &seek) != nil {
			return nil
		}
		ev.Seek = seek.Time
	case relay.EventQueueUpdated:
		var upd relay.QueueUpdate
		if json.Unmarshal(env.Data, &upd) != nil {
			return nil
		}
		ev.Queue = &upd
	case relay.EventUserJoined, relay.EventUserLeft:
		var presence relay.Presence
		if json.Unmarshal(env.Data, &presence) != nil {
			return nil
		}
		ev.Presence = &presence
	case relay.EventRoomJoined:
		var state relay.RoomState
		if json.Unmarshal(env.Data, &state) != nil {
			return nil
		}
		ev.Roster = &state
	default:
		return nil
	}
	return ev
}
