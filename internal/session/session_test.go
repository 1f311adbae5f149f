package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuneroom/internal/relay"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name  string
		env   func(t *testing.T) relay.Envelope
		check func(t *testing.T, ev *Event)
	}{
		{
			name: "receive-message",
			env: func(t *testing.T) relay.Envelope {
				env, err := relay.NewEnvelope(relay.EventReceiveMessage, "r1", relay.ChatMessage{ID: "m1", Content: "hello"})
				require.NoError(t, err)
				return env
			},
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev)
				require.NotNil(t, ev.Message)
				assert.Equal(t, "hello", ev.Message.Content)
			},
		},
		{
			name: "track-seeked",
			env: func(t *testing.T) relay.Envelope {
				env, err := relay.NewEnvelope(relay.EventTrackSeeked, "r1", relay.SeekPayload{Time: 125.5})
				require.NoError(t, err)
				return env
			},
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev)
				assert.Equal(t, 125.5, ev.Seek)
			},
		},
		{
			name: "track-paused has no payload",
			env: func(t *testing.T) relay.Envelope {
				return relay.Envelope{Event: relay.EventTrackPaused, Room: "r1"}
			},
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev)
				assert.Equal(t, relay.EventTrackPaused, ev.Type)
			},
		},
		{
			name: "queue-updated add",
			env: func(t *testing.T) relay.Envelope {
				env, err := relay.NewEnvelope(relay.EventQueueUpdated, "r1", relay.QueueUpdate{
					Action: relay.QueueActionAdd,
					Track:  &relay.Track{ID: "t1", Title: "A Song"},
				})
				require.NoError(t, err)
				return env
			},
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev)
				require.NotNil(t, ev.Queue)
				assert.Equal(t, relay.QueueActionAdd, ev.Queue.Action)
				assert.Equal(t, "t1", ev.Queue.Track.ID)
			},
		},
		{
			name: "roster",
			env: func(t *testing.T) relay.Envelope {
				env, err := relay.NewEnvelope(relay.EventRoomJoined, "r1", relay.RoomState{
					Room:    "r1",
					Members: []relay.Member{{ID: "a", Username: "Alice"}},
				})
				require.NoError(t, err)
				return env
			},
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev)
				require.NotNil(t, ev.Roster)
				assert.Len(t, ev.Roster.Members, 1)
			},
		},
		{
			name: "unknown event is skipped",
			env: func(t *testing.T) relay.Envelope {
				return relay.Envelope{Event: "mystery", Room: "r1"}
			},
			check: func(t *testing.T, ev *Event) {
				assert.Nil(t, ev)
			},
		},
		{
			name: "garbage payload is skipped",
			env: func(t *testing.T) relay.Envelope {
				return relay.Envelope{Event: relay.EventTrackChanged, Room: "r1", Data: []byte(`"nope"`)}
			},
			check: func(t *testing.T, ev *Event) {
				assert.Nil(t, ev)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, decodeEvent(tt.env(t)))
		})
	}
}

func TestLoopbackDegradedMode(t *testing.T) {
	ch := NewLoopback()
	defer ch.Close()

	assert.Equal(t, StatusLocal, ch.Status())
	require.NoError(t, ch.JoinRoom("r1", "Alice"))

	select {
	case ev := <-ch.Events():
		require.Equal(t, relay.EventRoomJoined, ev.Type)
		require.NotNil(t, ev.Roster)
		require.Len(t, ev.Roster.Members, 1)
		assert.Equal(t, "Alice", ev.Roster.Members[0].Username)
	case <-time.After(time.Second):
		t.Fatal("expected a roster event")
	}

	// the emit surface keeps working without a relay
	require.NoError(t, ch.SendMessage(relay.ChatMessage{Content: "hi"}))
	require.NoError(t, ch.PauseTrack())
	require.NoError(t, ch.SeekTrack(12))
	require.NoError(t, ch.AddToQueue(relay.Track{ID: "t1"}))
	require.NoError(t, ch.LeaveRoom())

	// and nothing is echoed back: this is a single-user room
	select {
	case ev, ok := <-ch.Events():
		if ok {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDialRejectsBadScheme(t *testing.T) {
	_, err := Dial("http://localhost:8080/ws")
	require.Error(t, err)
	_, err = Dial("://bad")
	require.Error(t, err)
}
