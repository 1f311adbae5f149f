package relay

import (
	"encoding/json"
	"time"
)

// EventType names a message on the wire. Inbound events come from clients,
// outbound events are what the relay rebroadcasts to the rest of the room.
type EventType string

const (
	// inbound
	EventJoinRoom        EventType = "join-room"
	EventLeaveRoom       EventType = "leave-room"
	EventSendMessage     EventType = "send-message"
	EventPlayTrack       EventType = "play-track"
	EventPauseTrack      EventType = "pause-track"
	EventResumeTrack     EventType = "resume-track"
	EventSeekTrack       EventType = "seek-track"
	EventAddToQueue      EventType = "add-to-queue"
	EventRemoveFromQueue EventType = "remove-from-queue"

	// outbound
	EventRoomJoined     EventType = "room-joined"
	EventUserJoined     EventType = "user-joined"
	EventUserLeft       EventType = "user-left"
	EventReceiveMessage EventType = "receive-message"
	EventTrackChanged   EventType = "track-changed"
	EventTrackPaused    EventType = "track-paused"
	EventTrackResumed   EventType = "track-resumed"
	EventTrackSeeked    EventType = "track-seeked"
	EventQueueUpdated   EventType = "queue-updated"
)

// Envelope is the framing every message uses: an event name, the room it
// targets, and an event-specific payload. Payloads the relay does not
// interpret (chat messages, tracks) pass through as raw bytes.
type Envelope struct {
	Event EventType       `json:"event"`
	Room  string          `json:"roomId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatMessage is relayed verbatim between clients. The relay validates the
// shape but never inspects or stores the content.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Track describes a queued piece of media. Opaque to the relay; only the
// clients resolve and play it.
type Track struct {
	ID        string    `json:"id"`
	MediaID   string    `json:"mediaId"`
	Title     string    `json:"title"`
	Channel   string    `json:"channel"`
	AddedBy   string    `json:"addedBy"`
	AddedAt   time.Time `json:"addedAt"`
	Thumbnail string    `json:"thumbnail,omitempty"`
}

// JoinPayload carries the display name a client wants to be known by.
type JoinPayload struct {
	DisplayName string `json:"displayName"`
}

// SeekPayload carries a playback position in seconds.
type SeekPayload struct {
	Time float64 `json:"time"`
}

// RemovePayload identifies the queue entry to drop.
type RemovePayload struct {
	TrackID string `json:"trackId"`
}

// Presence is broadcast as user-joined / user-left.
type Presence struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Member is one entry in a room roster.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RoomState is sent to a client right after it joins, so it learns who is
// already present without waiting for the next presence change.
type RoomState struct {
	Room    string   `json:"roomId"`
	Members []Member `json:"members"`
}

// Queue update actions.
const (
	QueueActionAdd    = "add"
	QueueActionRemove = "remove"
)

// QueueUpdate is broadcast as queue-updated for both add and remove.
type QueueUpdate struct {
	Action  string `json:"action"`
	Track   *Track `json:"track,omitempty"`
	TrackID string `json:"trackId,omitempty"`
}

// NewEnvelope marshals payload into a ready-to-send envelope.
func NewEnvelope(event EventType, room string, payload any) (Envelope, error) {
	env := Envelope{Event: event, Room: room}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env.Data = data
	return env, nil
}
