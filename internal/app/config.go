package app

import (
	"os"
	"path/filepath"
	"runtime"
)

// ServerConfig defines how the relay backend should run.
type ServerConfig struct {
	Addr     string
	LogLevel string
}

// ClientConfig defines the parameters the TUI client needs.
type ClientConfig struct {
	ServerURL string
	Username  string
	RoomKey   string
	DBPath    string
}

// DefaultDBPath returns a per-user data path for the client's SQLite file.
func DefaultDBPath() string {
	if env := os.Getenv("TUNEROOM_DB_PATH"); env != "" {
		return env
	}
	if env := os.Getenv("TUNEROOM_DATA_DIR"); env != "" {
		return filepath.Join(env, "tuneroom.db")
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tuneroom", "tuneroom.db")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "TuneRoom", "tuneroom.db")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "TuneRoom", "tuneroom.db")
		}
		return filepath.Join(home, ".local", "share", "tuneroom", "tuneroom.db")
	}
	return filepath.Join(".", ".tuneroom", "tuneroom.db")
}
