// Package config loads server configuration from the environment, with
// optional .env support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs to start.
type Config struct {
	// Port is the HTTP listen port.
	Port int
	// DBPath is the SQLite database file.
	DBPath string
	// PhotoDir is where expense photo attachments live; relative photo
	// references resolve against it and imported photos land in it.
	PhotoDir string
	// RatesURL overrides the exchange-rate endpoint (tests, mirrors).
	RatesURL string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := Config{
		Port:     8080,
		DBPath:   getEnv("DB_PATH", "./data/travelnote.db"),
		PhotoDir: getEnv("PHOTO_DIR", "./data/photos"),
		RatesURL: os.Getenv("RATES_URL"),
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
