package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tuneroom/internal/relay"
	"tuneroom/internal/session"
)

// pre styled colors, all from lipgloss
var (
	appTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).Padding(0, 1)
	subtitleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).MarginTop(1)
	menuBoxStyle       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 2).MarginTop(1)
	menuItemStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).PaddingLeft(1)
	menuHotkeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	menuHintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)
	noticeBoxStyle     = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("95")).Padding(1, 2).MarginTop(1)
	roomHeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("109")).MarginTop(1)
	connectedStyle     = statusStyle.Copy().Foreground(lipgloss.Color("42")).Bold(true)
	connectingStyle    = statusStyle.Copy().Foreground(lipgloss.Color("178")).Italic(true)
	offlineStyle       = statusStyle.Copy().Foreground(lipgloss.Color("196")).Bold(true)
	localStyle         = statusStyle.Copy().Foreground(lipgloss.Color("244")).Italic(true)
	nowPlayingStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("135")).Padding(0, 1).MarginTop(1)
	trackTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("219"))
	trackMetaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	queueBoxStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(0, 1).MarginTop(1)
	messageBodyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("253"))
	messageBoxStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(1, 2).MarginTop(1)
	inputBoxStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1).MarginTop(1)
	timestampStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	usernameStyle      = lipgloss.NewStyle().Bold(true)
	activeUserStyle    = usernameStyle.Copy().Foreground(lipgloss.Color("213"))
	systemMessageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	dividerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(" ┃ ")
	userColorPalette   = []lipgloss.Color{
		lipgloss.Color("45"),
		lipgloss.Color("81"),
		lipgloss.Color("141"),
		lipgloss.Color("98"),
		lipgloss.Color("63"),
		lipgloss.Color("135"),
		lipgloss.Color("32"),
	}
)

func (m *Model) View() string {
	switch m.mode {
	case modeMenu:
		return m.renderMenuView()
	case modeNamePrompt:
		return m.renderPrompt("Who are you?", "The name the room will see you as.")
	case modeJoinPrompt:
		return m.renderPrompt("Join a room", "Enter a room key and press Enter.")
	default:
		return m.renderRoomView()
	}
}

func (m *Model) renderMenuView() string {
	title := appTitleStyle.Render("TuneRoom")
	subtitle := subtitleStyle.Render("Listen together from your terminal")

	options := []string{
		renderMenuOption("1", "Join a room"),
		renderMenuOption("2", "Create a room"),
		renderMenuOption("q", "Quit"),
	}

	sections := []string{
		lipgloss.JoinVertical(lipgloss.Left, title, subtitle),
		menuBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, options...)),
	}
	if notices := m.renderNotices(); notices != "" {
		sections = append(sections, notices)
	}
	sections = append(sections, menuHintStyle.Render("1) Join  •  2) Create  •  q) Quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderPrompt(title, hint string) string {
	sections := []string{appTitleStyle.Render(title), menuHintStyle.Render(hint)}
	if notices := m.renderNotices(); notices != "" {
		sections = append(sections, notices)
	}
	sections = append(sections, inputBoxStyle.Render(m.textInput.View()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderRoomView() string {
	headerSegments := []string{"TuneRoom"}
	if m.roomKey != "" {
		headerSegments = append(headerSegments, fmt.Sprintf("Room %s", m.roomKey))
	}
	headerSegments = append(headerSegments, fmt.Sprintf("User %s", m.username))
	headerSegments = append(headerSegments, fmt.Sprintf("%d listening", len(m.members)))
	header := roomHeaderStyle.Render(strings.Join(headerSegments, dividerStyle))

	sections := []string{header, m.renderStatusLine(), m.renderNowPlaying()}

	if queueView := m.renderQueue(); queueView != "" {
		sections = append(sections, queueView)
	}

	var messageLines []string
	for _, chat := range m.messages {
		messageLines = append(messageLines, m.renderChatMessage(chat))
	}
	if len(messageLines) == 0 {
		messageLines = append(messageLines, systemMessageStyle.Render("No messages yet. Say hi and start the conversation."))
	}
	sections = append(sections, messageBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, messageLines...)))

	if notices := m.renderNotices(); notices != "" {
		sections = append(sections, notices)
	}

	sections = append(sections,
		inputBoxStyle.Render(m.textInput.View()),
		menuHintStyle.Render("/help for commands • Ctrl+C to quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderStatusLine() string {
	switch m.status {
	case session.StatusConnected:
		return connectedStyle.Render("Connected")
	case session.StatusConnecting:
		return connectingStyle.Render("Connecting…")
	case session.StatusLocal:
		return localStyle.Render("Local mode, nothing is shared")
	default:
		return offlineStyle.Render("Offline")
	}
}

func (m *Model) renderNowPlaying() string {
	state, track, position, duration := m.coord.Snapshot()
	if track == nil {
		return nowPlayingStyle.Render(trackMetaStyle.Render("Nothing playing. /play <link> to start."))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Left,
		trackTitleStyle.Render(track.Title),
		trackMetaStyle.Render(fmt.Sprintf("  %s  %s  %s / %s",
			track.Channel, state, formatClock(position), formatClock(duration))))
	return nowPlayingStyle.Render(line)
}

func (m *Model) renderQueue() string {
	if len(m.queue) == 0 {
		return ""
	}
	lines := []string{trackMetaStyle.Render(fmt.Sprintf("Up next (%d)", len(m.queue)))}
	for i, track := range m.queue {
		lines = append(lines, messageBodyStyle.Render(fmt.Sprintf("%d. %s", i+1, track.Title))+
			trackMetaStyle.Render("  added by "+track.AddedBy))
	}
	return queueBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderNotices() string {
	if len(m.notices) == 0 {
		return ""
	}
	// only the tail stays visible; old notices scroll away
	start := 0
	if len(m.notices) > 3 {
		start = len(m.notices) - 3
	}
	var lines []string
	for _, notice := range m.notices[start:] {
		lines = append(lines, systemMessageStyle.Render(notice))
	}
	return noticeBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderChatMessage renders a single log line. It stamps the timestamp, picks
// a color for the sender, and indents multi-line messages so they stay legible.
func (m *Model) renderChatMessage(chat relay.ChatMessage) string {
	timestamp := timestampStyle.Render(fmt.Sprintf("[%s]", chat.Timestamp.Local().Format("15:04:05")))

	var nameStyle lipgloss.Style
	if chat.UserID == m.userID {
		nameStyle = activeUserStyle
	} else {
		nameStyle = usernameStyle.Copy().Foreground(colorForUser(chat.Username))
	}

	name := nameStyle.Render(chat.Username)
	body := messageBodyStyle.Render(strings.ReplaceAll(chat.Content, "\n", "\n   "))
	return lipgloss.JoinHorizontal(lipgloss.Left, timestamp, " ", name, ": ", body)
}

func renderMenuOption(hotkey string, label string) string {
	key := menuHotkeyStyle.Render(hotkey)
	return lipgloss.JoinHorizontal(lipgloss.Left, key, menuItemStyle.Render(label))
}

func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// color for users
func colorForUser(name string) lipgloss.Color {
	if name == "" {
		return userColorPalette[0]
	}
	var sum int
	for _, r := range name {
		sum += int(r)
	}
	return userColorPalette[sum%len(userColorPalette)]
}
