package session

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tuneroom/internal/relay"
)

const (
	dialTimeout          = 10 * time.Second
	writeTimeout         = 10 * time.Second
	reconnectDelay       = 2 * time.Second
	maxReconnectAttempts = 3
	eventBuffer          = 64
)

// wsChannel is the networked RoomChannel. It owns a single websocket
// connection, decodes inbound envelopes into typed events, and transparently
// reconnects (re-running the join sequence) when the transport drops.
type wsChannel struct {
	url    string
	events chan Event

	mu          sync.Mutex
	ws          *websocket.Conn
	status      Status
	roomID      string
	displayName string
	closed      bool
}

// Dial connects to the relay and starts the read loop. Callers that get an
// error back are expected to fall back to NewLoopback.
func Dial(serverURL string) (RoomChannel, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, fmt.Errorf("invalid scheme for websocket: %s", parsed.Scheme)
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = dialTimeout
	ws, _, err := dialer.Dial(parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	ch := &wsChannel{
		url:    parsed.String(),
		events: make(chan Event, eventBuffer),
		ws:     ws,
		status: StatusConnected,
	}
	go ch.readLoop()
	return ch, nil
}

func (c *wsChannel) JoinRoom(roomID, displayName string) error {
	c.mu.Lock()
	c.roomID = roomID
	c.displayName = displayName
	c.mu.Unlock()
	return c.emit(relay.EventJoinRoom, roomID, relay.JoinPayload{DisplayName: displayName})
}

func (c *wsChannel) LeaveRoom() error {
	c.mu.Lock()
	roomID := c.roomID
	c.roomID = ""
	c.mu.Unlock()
	if roomID == "" {
		return nil
	}
	return c.emit(relay.EventLeaveRoom, roomID, nil)
}

func (c *wsChannel) SendMessage(msg relay.ChatMessage) error {
	return c.emitToRoom(relay.EventSendMessage, msg)
}

func (c *wsChannel) PlayTrack(track relay.Track) error {
	return c.emitToRoom(relay.EventPlayTrack, track)
}

func (c *wsChannel) PauseTrack() error {
	return c.emitToRoom(relay.EventPauseTrack, nil)
}

func (c *wsChannel) ResumeTrack() error {
	return c.emitToRoom(relay.EventResumeTrack, nil)
}

func (c *wsChannel) SeekTrack(seconds float64) error {
	return c.emitToRoom(relay.EventSeekTrack, relay.SeekPayload{Time: seconds})
}

func (c *wsChannel) AddToQueue(track relay.Track) error {
	return c.emitToRoom(relay.EventAddToQueue, track)
}

func (c *wsChannel) RemoveFromQueue(trackID string) error {
	return c.emitToRoom(relay.EventRemoveFromQueue, relay.RemovePayload{TrackID: trackID})
}

func (c *wsChannel) Events() <-chan Event {
	return c.events
}

func (c *wsChannel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *wsChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
		return ws.Close()
	}
	return nil
}

func (c *wsChannel) emitToRoom(event relay.EventType, payload any) error {
	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()
	if roomID == "" {
		return fmt.Errorf("no room joined")
	}
	return c.emit(event, roomID, payload)
}

func (c *wsChannel) emit(event relay.EventType, roomID string, payload any) error {
	env, err := relay.NewEnvelope(event, roomID, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return ErrOffline
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsChannel) readLoop() {
	for {
		c.mu.Lock()
		ws := c.ws
		closed := c.closed
		c.mu.Unlock()
		if closed || ws == nil {
			return
		}

		_, payload, err := ws.ReadMessage()
		if err != nil {
			if !c.reconnect() {
				return
			}
			continue
		}

		var env relay.Envelope
		if json.Unmarshal(payload, &env) != nil {
			continue
		}
		ev := decodeEvent(env)
		if ev == nil {
			continue
		}
		c.push(*ev)
	}
}

// reconnect re-dials and re-runs the join sequence. Rejoining is a fresh
// join: other members see user-joined again. Returns false when the channel
// was closed or the attempts are exhausted.
func (c *wsChannel) reconnect() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if c.ws != nil {
		_ = c.ws.Close()
		c.ws = nil
	}
	c.status = StatusConnecting
	roomID, displayName := c.roomID, c.displayName
	c.mu.Unlock()
	c.pushStatus(StatusConnecting)

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		time.Sleep(reconnectDelay)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return false
		}
		c.mu.Unlock()

		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = dialTimeout
		ws, _, err := dialer.Dial(c.url, nil)
		if err != nil {
			continue
		}

		c.mu.Lock()
		c.ws = ws
		c.status = StatusConnected
		c.mu.Unlock()
		c.pushStatus(StatusConnected)

		if roomID != "" {
			_ = c.emit(relay.EventJoinRoom, roomID, relay.JoinPayload{DisplayName: displayName})
		}
		return true
	}

	c.mu.Lock()
	c.status = StatusOffline
	c.mu.Unlock()
	c.pushStatus(StatusOffline)
	return false
}

func (c *wsChannel) push(ev Event) {
	select {
	case c.events <- ev:
	default:
		// consumer stalled; drop rather than wedge the read loop
	}
}

func (c *wsChannel) pushStatus(s Status) {
	c.push(Event{Type: EventStatusChanged, Status: &s})
}
