package main

import (
	"log/slog"
	"os"

	"github.com/mbp16/travelnote/internal/config"
	"github.com/mbp16/travelnote/internal/server"
	"github.com/mbp16/travelnote/internal/storage/sqlite"
	"github.com/mbp16/travelnote/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.PhotoDir, 0755); err != nil {
		slog.Error("Failed to prepare photo directory", "path", cfg.PhotoDir, "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	srv := server.New(cfg, store)
	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
