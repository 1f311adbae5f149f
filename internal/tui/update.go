package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"tuneroom/internal/playback"
	"tuneroom/internal/relay"
	"tuneroom/internal/session"
	"tuneroom/internal/storage"
)

func (m *Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := message.(type) {
	case tea.KeyMsg:
		// Any mode should respect Ctrl+C so the user can bail out quickly.
		if typed.Type == tea.KeyCtrlC {
			return m, m.quit()
		}
		switch m.mode {
		case modeMenu:
			return m.updateMenu(typed)
		case modeNamePrompt:
			return m.updateNamePrompt(typed)
		case modeJoinPrompt:
			return m.updateJoinPrompt(typed)
		case modeRoom:
			return m.updateRoom(typed)
		}

	case sessionEventMsg:
		cmd := m.applyEvent(session.Event(typed))
		return m, tea.Batch(m.waitEventCmd(), cmd)

	case channelDoneMsg:
		m.status = session.StatusOffline
		m.notices = append(m.notices, "Connection closed.")
		return m, nil

	case advanceMsg:
		return m, tea.Batch(m.waitAdvanceCmd(), m.advanceQueue())

	case historyMsg:
		m.loadHistory(typed.room)
		return m, nil

	case noticeMsg:
		m.notices = append(m.notices, string(typed))
		return m, nil

	case tickMsg:
		// the now-playing bar re-reads the coordinator snapshot on render
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) updateMenu(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "1", "j", "J":
		m.pendingAction = actionJoin
		return m, m.promptName()
	case "2", "c", "C":
		m.pendingAction = actionCreate
		return m, m.promptName()
	case "q", "Q", "3":
		return m, m.quit()
	}
	return m, nil
}

func (m *Model) promptName() tea.Cmd {
	m.mode = modeNamePrompt
	m.textInput.SetValue(m.username)
	m.textInput.Placeholder = "Enter display name…"
	m.textInput.Prompt = "name> "
	return m.textInput.Focus()
}

func (m *Model) updateNamePrompt(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEnter:
		trimmed := strings.TrimSpace(m.textInput.Value())
		if trimmed == "" {
			m.notices = append(m.notices, "Display name cannot be empty.")
			return m, nil
		}
		m.username = trimmed
		m.saveProfile()
		m.textInput.SetValue("")
		next := m.pendingAction
		m.pendingAction = actionNone
		switch next {
		case actionJoin:
			m.mode = modeJoinPrompt
			m.textInput.Placeholder = "Enter room key…"
			m.textInput.Prompt = "room> "
			return m, m.textInput.Focus()
		case actionCreate:
			key := generateRoomKey(12)
			m.notices = append(m.notices, "Created room "+key+". Share the key to invite others.")
			return m, m.enterRoom(key)
		default:
			m.backToMenu()
			return m, nil
		}
	case tea.KeyEsc:
		m.pendingAction = actionNone
		m.backToMenu()
		return m, nil
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(key)
	return m, cmd
}

func (m *Model) updateJoinPrompt(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.backToMenu()
		return m, nil
	case tea.KeyEnter:
		trimmed := strings.TrimSpace(m.textInput.Value())
		if trimmed == "" {
			return m, nil
		}
		return m, m.enterRoom(trimmed)
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(key)
	return m, cmd
}

func (m *Model) enterRoom(key string) tea.Cmd {
	m.roomKey = key
	m.mode = modeRoom
	m.textInput.SetValue("")
	m.textInput.Placeholder = "Type a message or /help…"
	m.textInput.Prompt = "> "
	return tea.Batch(m.textInput.Focus(), m.joinCmd(key))
}

func (m *Model) backToMenu() {
	m.mode = modeMenu
	m.textInput.SetValue("")
	m.textInput.Blur()
	m.textInput.Placeholder = ""
	m.textInput.Prompt = ""
}

func (m *Model) updateRoom(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyEnter {
		trimmed := strings.TrimSpace(m.textInput.Value())
		m.textInput.SetValue("")
		if trimmed == "" {
			return m, nil
		}
		if strings.HasPrefix(trimmed, "/") {
			return m, m.runCommand(trimmed)
		}
		return m, m.sendChat(trimmed)
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(key)
	return m, cmd
}

func (m *Model) runCommand(line string) tea.Cmd {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "quit", "exit":
		return m.quit()
	case "help":
		m.notices = append(m.notices,
			"/play <link|id>  /add <link|id>  /drop <n>  /skip  /pause  /resume  /seek <sec>  /quit")
	case "play":
		if arg == "" {
			m.notices = append(m.notices, "Usage: /play <link or media id>")
			return nil
		}
		track, err := m.buildTrack(arg)
		if err != nil {
			m.notices = append(m.notices, err.Error())
			return nil
		}
		m.coord.SetTrack(track)
	case "pause", "resume":
		m.coord.TogglePlay()
	case "seek":
		seconds, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			m.notices = append(m.notices, "Usage: /seek <seconds>")
			return nil
		}
		m.coord.Seek(seconds)
	case "add":
		if arg == "" {
			m.notices = append(m.notices, "Usage: /add <link or media id>")
			return nil
		}
		track, err := m.buildTrack(arg)
		if err != nil {
			m.notices = append(m.notices, err.Error())
			return nil
		}
		state, current, _, _ := m.coord.Snapshot()
		if current == nil || state == playback.StateIdle || state == playback.StateEnded {
			// nothing playing yet, start right away
			m.coord.SetTrack(track)
			return nil
		}
		m.queue = append(m.queue, track)
		m.persistQueue()
		if err := m.channel.AddToQueue(track); err != nil {
			m.notices = append(m.notices, "Queue add not relayed: "+err.Error())
		}
	case "drop":
		idx, err := strconv.Atoi(arg)
		if err != nil || idx < 1 || idx > len(m.queue) {
			m.notices = append(m.notices, "Usage: /drop <queue position>")
			return nil
		}
		track := m.queue[idx-1]
		m.queue = append(m.queue[:idx-1], m.queue[idx:]...)
		m.persistQueue()
		if err := m.channel.RemoveFromQueue(track.ID); err != nil {
			m.notices = append(m.notices, "Queue remove not relayed: "+err.Error())
		}
	case "skip", "next":
		m.coord.Skip()
	default:
		m.notices = append(m.notices, "Unknown command: /"+name)
	}
	return nil
}

func (m *Model) buildTrack(ref string) (relay.Track, error) {
	info, err := m.resolver.Resolve(ref)
	if err != nil {
		return relay.Track{}, err
	}
	return relay.Track{
		ID:        uuid.NewString(),
		MediaID:   info.MediaID,
		Title:     info.Title,
		Channel:   info.Channel,
		AddedBy:   m.username,
		AddedAt:   time.Now().UTC(),
		Thumbnail: info.Thumbnail,
	}, nil
}

func (m *Model) sendChat(content string) tea.Cmd {
	msg := relay.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    m.userID,
		Username:  m.username,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	// the relay excludes the sender, so the local copy is appended here
	m.messages = append(m.messages, msg)
	if m.store != nil {
		_ = m.store.AppendMessage(storeCtx(), m.roomKey, msg)
	}
	return func() tea.Msg {
		if err := m.channel.SendMessage(msg); err != nil && err != session.ErrOffline {
			return noticeMsg("Send failed: " + err.Error())
		}
		return nil
	}
}

// applyEvent folds one inbound channel event into the model.
func (m *Model) applyEvent(ev session.Event) tea.Cmd {
	switch ev.Type {
	case relay.EventRoomJoined:
		if ev.Roster != nil {
			m.members = ev.Roster.Members
			m.notices = append(m.notices, fmt.Sprintf("Joined room %s (%d listening).", ev.Roster.Room, len(ev.Roster.Members)))
		}
	case relay.EventUserJoined:
		if ev.Presence != nil {
			m.members = append(m.members, relay.Member{ID: ev.Presence.UserID, Username: ev.Presence.Username})
			m.notices = append(m.notices, ev.Presence.Username+" joined.")
		}
	case relay.EventUserLeft:
		if ev.Presence != nil {
			for i, member := range m.members {
				if member.ID == ev.Presence.UserID {
					m.notices = append(m.notices, member.Username+" left.")
					m.members = append(m.members[:i], m.members[i+1:]...)
					break
				}
			}
		}
	case relay.EventReceiveMessage:
		if ev.Message != nil {
			m.messages = append(m.messages, *ev.Message)
			if m.store != nil {
				_ = m.store.AppendMessage(storeCtx(), m.roomKey, *ev.Message)
			}
		}
	case relay.EventTrackChanged:
		if ev.Track != nil {
			m.coord.ApplyTrackChanged(*ev.Track)
			m.dropFromQueue(ev.Track.ID)
		}
	case relay.EventTrackPaused:
		m.coord.ApplyPause()
	case relay.EventTrackResumed:
		m.coord.ApplyResume()
	case relay.EventTrackSeeked:
		m.coord.ApplySeek(ev.Seek)
	case relay.EventQueueUpdated:
		if ev.Queue == nil {
			break
		}
		switch ev.Queue.Action {
		case relay.QueueActionAdd:
			if ev.Queue.Track != nil {
				m.queue = append(m.queue, *ev.Queue.Track)
				m.persistQueue()
			}
		case relay.QueueActionRemove:
			m.dropFromQueue(ev.Queue.TrackID)
		}
	case session.EventStatusChanged:
		if ev.Status != nil {
			m.status = *ev.Status
			switch *ev.Status {
			case session.StatusOffline:
				m.notices = append(m.notices, "Connection lost. Reconnecting…")
			case session.StatusConnected:
				m.notices = append(m.notices, "Reconnected.")
			}
		}
	}
	return nil
}

// advanceQueue plays the next queued track after the current one ends. The
// decision is local; the resulting track-changed announcement is what the
// rest of the room follows.
func (m *Model) advanceQueue() tea.Cmd {
	if len(m.queue) == 0 {
		m.notices = append(m.notices, "Queue is empty.")
		return nil
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	m.persistQueue()
	m.coord.SetTrack(next)
	return func() tea.Msg {
		if err := m.channel.RemoveFromQueue(next.ID); err != nil && err != session.ErrOffline {
			return noticeMsg("Queue remove not relayed: " + err.Error())
		}
		return nil
	}
}

func (m *Model) dropFromQueue(trackID string) {
	for i, track := range m.queue {
		if track.ID == trackID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.persistQueue()
			return
		}
	}
}

func (m *Model) persistQueue() {
	if m.store != nil && m.roomKey != "" {
		_ = m.store.SaveQueue(storeCtx(), m.roomKey, m.queue)
	}
}

func (m *Model) saveProfile() {
	if m.store == nil {
		return
	}
	profile := storage.Profile{DisplayName: m.username}
	if existing, err := m.store.GetProfile(storeCtx()); err == nil && existing != nil {
		profile.FavoriteGenre = existing.FavoriteGenre
	}
	_ = m.store.SaveProfile(storeCtx(), profile)
}

func (m *Model) loadHistory(room string) {
	if m.store == nil {
		return
	}
	history, err := m.store.MessagesForRoom(storeCtx(), room, 50)
	if err != nil || len(history) == 0 {
		return
	}
	// history loads once, right after joining, before any live messages
	if len(m.messages) == 0 {
		m.messages = history
	}
}

func (m *Model) quit() tea.Cmd {
	_ = m.channel.LeaveRoom()
	_ = m.channel.Close()
	m.coord.Close()
	m.player.Close()
	return tea.Quit
}
