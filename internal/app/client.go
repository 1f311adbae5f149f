package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"tuneroom/internal/metadata"
	"tuneroom/internal/session"
	"tuneroom/internal/storage"
	"tuneroom/internal/tui"
)

// RunClient opens the local store, picks a room channel, and launches the
// Bubble Tea TUI. When the server cannot be reached the client drops into
// local mode instead of refusing to start.
func RunClient(cfg ClientConfig) error {
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(context.Background()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var channel session.RoomChannel
	if cfg.ServerURL == "" {
		channel = session.NewLoopback()
	} else {
		channel, err = session.Dial(cfg.ServerURL)
		if err != nil {
			slog.Warn("server unreachable, running in local mode", "url", cfg.ServerURL, "error", err)
			channel = session.NewLoopback()
		}
	}

	model := tui.NewModel(tui.Config{
		Channel:  channel,
		Store:    store,
		Resolver: metadata.NewStaticResolver(),
		Username: cfg.Username,
		RoomKey:  cfg.RoomKey,
	})
	program := tea.NewProgram(model)
	_, err = program.Run()
	return err
}
