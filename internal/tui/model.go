package tui

import (
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"tuneroom/internal/metadata"
	"tuneroom/internal/playback"
	"tuneroom/internal/relay"
	"tuneroom/internal/session"
	"tuneroom/internal/storage"
)

// tui model struct for all the components and modes
type Model struct {
	textInput textinput.Model

	channel  session.RoomChannel
	coord    *playback.Coordinator
	player   *playback.ClockPlayer
	resolver *metadata.StaticResolver
	store    *storage.Store

	userID   string
	username string
	roomKey  string

	mode          appMode
	pendingAction actionType

	messages []relay.ChatMessage
	notices  []string
	members  []relay.Member
	queue    []relay.Track
	status   session.Status

	// fed by the coordinator's queue-advance callback; drained in Update
	advance chan struct{}

	fatalErr error
}

type appMode int

const (
	modeMenu appMode = iota
	modeNamePrompt
	modeJoinPrompt
	modeRoom
)

type actionType int

const (
	actionNone actionType = iota
	actionJoin
	actionCreate
)

// Config carries everything the model needs; the caller decides whether the
// channel is networked or loopback.
type Config struct {
	Channel  session.RoomChannel
	Store    *storage.Store
	Resolver *metadata.StaticResolver
	Username string
	RoomKey  string
}

func NewModel(cfg Config) *Model {
	input := textinput.New()
	input.Placeholder = "Type a message…"
	input.CharLimit = 0
	input.Focus()
	input.Prompt = "> "

	username := cfg.Username
	if username == "" {
		username = defaultUsername(cfg.Store)
	}

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = metadata.NewStaticResolver()
	}

	m := &Model{
		textInput: input,
		channel:   cfg.Channel,
		resolver:  resolver,
		store:     cfg.Store,
		userID:    uuid.NewString(),
		username:  username,
		roomKey:   cfg.RoomKey,
		messages:  make([]relay.ChatMessage, 0, 64),
		status:    cfg.Channel.Status(),
		advance:   make(chan struct{}, 4),
	}

	m.player = playback.NewClockPlayer()
	m.player.SetDurationFunc(resolver.DurationOf)
	m.coord = playback.NewCoordinator(playback.Config{
		Player:    m.player,
		Emitter:   cfg.Channel,
		OnAdvance: func() { m.advance <- struct{}{} },
	})
	m.player.SetNotify(m.coord.HandleSignal)

	if cfg.RoomKey == "" {
		m.mode = modeMenu
		m.textInput.Blur()
		m.textInput.Prompt = ""
		m.textInput.Placeholder = ""
	} else {
		m.mode = modeRoom
	}
	return m
}

// init user
func defaultUsername(store *storage.Store) string {
	if store != nil {
		if p, err := store.GetProfile(storeCtx()); err == nil && p != nil && p.DisplayName != "" {
			return p.DisplayName
		}
	}
	if user := os.Getenv("TUNEROOM_USER"); user != "" {
		return user
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "anon"
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitEventCmd(), m.waitAdvanceCmd(), tickCmd()}
	if m.mode == modeRoom {
		cmds = append(cmds, m.joinCmd(m.roomKey))
	}
	return tea.Batch(cmds...)
}
