package tui

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tuneroom/internal/session"
)

type (
	sessionEventMsg session.Event
	channelDoneMsg  struct{}
	advanceMsg      struct{}
	tickMsg         time.Time
	historyMsg      struct{ room string }
	// noticeMsg carries a status line back from a command goroutine; only
	// Update may touch the model, so commands never append notices directly
	noticeMsg string
)

// storeCtx backs the one-shot local store queries; the SQLite file is on
// disk next to the process, a deadline buys nothing.
func storeCtx() context.Context {
	return context.Background()
}

// waitEventCmd blocks on the channel's event stream and re-arms itself from
// Update after every delivery.
func (m *Model) waitEventCmd() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.channel.Events()
		if !ok {
			return channelDoneMsg{}
		}
		return sessionEventMsg(ev)
	}
}

// waitAdvanceCmd bridges the coordinator's queue-advance callback into the
// update loop so queue state only changes on the program goroutine.
func (m *Model) waitAdvanceCmd() tea.Cmd {
	return func() tea.Msg {
		<-m.advance
		return advanceMsg{}
	}
}

// tickCmd drives the now-playing position display.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) joinCmd(key string) tea.Cmd {
	name := m.username
	return func() tea.Msg {
		if err := m.channel.JoinRoom(key, name); err != nil {
			return noticeMsg("Join failed: " + err.Error())
		}
		if m.store != nil {
			_ = m.store.TouchRoom(storeCtx(), key, "")
		}
		return historyMsg{room: key}
	}
}

// make shareable room code using base32
func generateRoomKey(length int) string {
	if length < 8 {
		length = 8
	}
	byteLen := (length * 5) / 8
	if (length*5)%8 != 0 {
		byteLen++
	}
	b := make([]byte, byteLen)
	_, _ = rand.Read(b)
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
	if len(enc) >= length {
		return enc[:length]
	}
	return enc
}
