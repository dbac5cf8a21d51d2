// Package config reads settings from the environment and an optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHotspotURL        = "HOTSPOT_URL"
	EnvHotspotService    = "HOTSPOT_SERVICE"
	EnvDiscoveryTimeout  = "HOTSPOT_DISCOVERY_TIMEOUT"
	EnvMPDHost           = "MPD_HOST"
	EnvMPDPort           = "MPD_PORT"
	EnvMPDPassword       = "MPD_PASSWORD"
	EnvHistoryDB         = "HOTSPOT_HISTORY_DB"
	EnvHotspotdPort      = "HOTSPOTD_PORT"
	EnvHotspotdCatalogue = "HOTSPOTD_CATALOGUE"
)

// Load reads the .env file from the current working directory and sets
// environment variables that are not already set. A missing file is
// reported as an error which callers may ignore.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of key, or fallback if it is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of key, or fallback if it is unset,
// empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvDuration returns the duration value of key ("5s", "1m30s"), or
// fallback if it is unset, empty, invalid, or not positive.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
