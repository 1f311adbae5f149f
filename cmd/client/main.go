package main

import (
	"flag"
	"fmt"
	"os"

	"tuneroom/internal/app"
)

func main() {
	defaultServer := envOrDefault("TUNEROOM_SERVER", "ws://localhost:8080/ws")
	defaultUser := envOrDefault("TUNEROOM_USER", "")

	serverURL := flag.String("server", defaultServer, "relay websocket URL (e.g., ws://localhost:8080/ws)")
	username := flag.String("user", defaultUser, "display name shown to the room")
	dbPath := flag.String("db", "", "path to the local SQLite file (defaults to a per-user data dir)")
	local := flag.Bool("local", false, "skip the relay and run in local mode")
	flag.Parse()

	args := flag.Args()
	var roomKey string
	if len(args) >= 1 {
		roomKey = args[0]
	}

	cfg := app.ClientConfig{
		ServerURL: *serverURL,
		RoomKey:   roomKey,
		Username:  *username,
		DBPath:    *dbPath,
	}
	if *local {
		cfg.ServerURL = ""
	}

	if err := app.RunClient(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
