// Package config loads the client's tunables from the environment, with the
// defaults the reference client shipped with.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL         string
	DialTimeout       time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	FlushInterval     time.Duration
	TurnSeconds       int
}

func Default() Config {
	return Config{
		ServerURL:         "ws://localhost:4000/ws",
		DialTimeout:       20 * time.Second,
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		ReconnectDelayMax: 5 * time.Second,
		FlushInterval:     20 * time.Millisecond,
		TurnSeconds:       60,
	}
}

// Load reads .env if present, then overlays environment variables on the
// defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()
	cfg.ServerURL = getEnvString("SKETCH_SERVER_URL", cfg.ServerURL)
	cfg.DialTimeout = getEnvDuration("SKETCH_DIAL_TIMEOUT", cfg.DialTimeout)
	cfg.ReconnectAttempts = getEnvInt("SKETCH_RECONNECT_ATTEMPTS", cfg.ReconnectAttempts)
	cfg.ReconnectDelay = getEnvDuration("SKETCH_RECONNECT_DELAY", cfg.ReconnectDelay)
	cfg.ReconnectDelayMax = getEnvDuration("SKETCH_RECONNECT_DELAY_MAX", cfg.ReconnectDelayMax)
	cfg.FlushInterval = getEnvDuration("SKETCH_FLUSH_INTERVAL", cfg.FlushInterval)
	cfg.TurnSeconds = getEnvInt("SKETCH_TURN_SECONDS", cfg.TurnSeconds)
	return cfg
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
