package session

import (
	"sync"

	"github.com/google/uuid"

	"tuneroom/internal/relay"
)

// loopback is the degraded single-user stand-in used when no relay is
// reachable. It honors the whole RoomChannel surface so chat and queue keep
// working in this one client, but nothing leaves the process.
type loopback struct {
	mu          sync.Mutex
	events      chan Event
	userID      string
	roomID      string
	displayName string
	closed      bool
}

// NewLoopback builds a local RoomChannel. Select it at construction time
// when Dial fails; the rest of the client cannot tell the difference.
func NewLoopback() RoomChannel {
	return &loopback{
		events: make(chan Event, eventBuffer),
		userID: "local-" + uuid.NewString(),
	}
}

func (l *loopback) JoinRoom(roomID, displayName string) error {
	l.mu.Lock()
	l.roomID = roomID
	l.displayName = displayName
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrOffline
	}
	// the roster is just this user; there is no one else to hear about it
	l.push(Event{
		Type: relay.EventRoomJoined,
		Room: roomID,
		Roster: &relay.RoomState{
			Room:    roomID,
			Members: []relay.Member{{ID: l.userID, Username: displayName}},
		},
	})
	return nil
}

func (l *loopback) LeaveRoom() error {
	l.mu.Lock()
	l.roomID = ""
	l.mu.Unlock()
	return nil
}

// The emit surface accepts everything and relays nothing: the caller's own
// UI already reflects its local actions.

func (l *loopback) SendMessage(relay.ChatMessage) error { return nil }
func (l *loopback) PlayTrack(relay.Track) error         { return nil }
func (l *loopback) PauseTrack() error                   { return nil }
func (l *loopback) ResumeTrack() error                  { return nil }
func (l *loopback) SeekTrack(float64) error             { return nil }
func (l *loopback) AddToQueue(relay.Track) error        { return nil }
func (l *loopback) RemoveFromQueue(string) error        { return nil }

func (l *loopback) Events() <-chan Event {
	return l.events
}

func (l *loopback) Status() Status {
	return StatusLocal
}

func (l *loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.events)
	}
	return nil
}

func (l *loopback) push(ev Event) {
	select {
	case l.events <- ev:
	default:
	}
}
