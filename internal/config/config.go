// Package config loads process configuration from the environment
// (spec.md §6). Grounded on the teacher's load-once-into-a-package-global
// pattern (_examples/LarryBui-ThirteenV4/Server/internal/config/config.go),
// adapted from a JSON config file to environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds every environment-derived setting the server reads at
// startup. Fields beyond spec.md §6's four are supplemented ambient knobs
// (idle-room reaping, bot think bounds, reset delay, outbound queue
// deadline) that spec.md §5 names as design values but leaves unconfigured.
type Config struct {
	Port                  string
	DatabaseURL           string
	JWTSecret             string
	SessionExpiration     time.Duration
	IdleRoomTimeout       time.Duration
	BotThinkMin           time.Duration
	BotThinkMax           time.Duration
	GameResetDelay        time.Duration
	OutboundQueueDeadline time.Duration
}

var (
	cfg      *Config
	loadOnce sync.Once
	loadErr  error
)

// Load reads and validates the environment once; subsequent calls return
// the cached result.
func Load() (*Config, error) {
	loadOnce.Do(func() {
		c := &Config{
			Port:                  getenv("PORT", "3000"),
			DatabaseURL:           os.Getenv("DATABASE_URL"),
			JWTSecret:             os.Getenv("JWT_SECRET"),
			SessionExpiration:     24 * time.Hour * time.Duration(getenvInt("SESSION_EXPIRATION_DAYS", 365)),
			IdleRoomTimeout:       time.Duration(getenvInt("IDLE_ROOM_TIMEOUT_MINUTES", 30)) * time.Minute,
			BotThinkMin:           time.Duration(getenvInt("BOT_THINK_MIN_MS", 500)) * time.Millisecond,
			BotThinkMax:           time.Duration(getenvInt("BOT_THINK_MAX_MS", 2000)) * time.Millisecond,
			GameResetDelay:        time.Duration(getenvInt("GAME_RESET_DELAY_SECONDS", 5)) * time.Second,
			OutboundQueueDeadline: time.Duration(getenvInt("OUTBOUND_QUEUE_DEADLINE_MS", 1000)) * time.Millisecond,
		}
		if c.JWTSecret == "" {
			loadErr = fmt.Errorf("config: JWT_SECRET is required")
			return
		}
		cfg = c
	})
	return cfg, loadErr
}

// Get returns the cached config, or nil if Load has not been called yet.
func Get() *Config {
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
