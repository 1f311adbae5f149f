package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tuneroom/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := app.ServerConfig{
		Addr:     envOrDefault("TUNEROOM_ADDR", ":8080"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),
	}
	setupLogger(cfg.LogLevel)

	handle, err := app.RunServer(context.Background(), cfg)
	if err != nil {
		slog.Error("server start error", "error", err)
		os.Exit(1)
	}
	slog.Info("relay listening", "addr", handle.Addr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := handle.Stop(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := handle.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(levelName string) {
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
