package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tphummel/lessee/internal/models"
)

type config struct {
	DBPath    string
	Port      string
	LogLevel  slog.Level
	NATSURL   string
	Platforms []string
	URL       string
}

// loadConfig reads configuration from environment variables and applies
// defaults. A .env file, if present, has already been loaded into the
// environment by main.
func loadConfig() (config, error) {
	cfg := config{
		DBPath:    envOr("DB_PATH", "./lessee.db"),
		Port:      envOr("PORT", "8080"),
		NATSURL:   os.Getenv("NATS_URL"),
		Platforms: models.DefaultPlatforms,
		URL:       envOr("LESSEE_URL", "http://localhost:8080"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(envOr("LOG_LEVEL", "info"))); err != nil {
		return config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if v := os.Getenv("PLATFORMS"); v != "" {
		var names []string
		seen := make(map[string]bool)
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if seen[name] {
				return config{}, fmt.Errorf("PLATFORMS: %q listed more than once", name)
			}
			seen[name] = true
			names = append(names, name)
		}
		if len(names) == 0 {
			return config{}, fmt.Errorf("PLATFORMS: no platform names in %q", v)
		}
		cfg.Platforms = names
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
