package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	GhostMode       bool   `json:"ghost_mode"`
	GhostThrottleMs int    `json:"ghost_throttle_ms"`
	DebugTables     bool   `json:"debug_tables"`
	AiTimeoutSecs   int    `json:"ai_timeout_secs"`
	OpeningPlies    int    `json:"opening_plies"`
	LogLevel        string `json:"log_level"`
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		GhostMode:       false,
		GhostThrottleMs: 50,
		DebugTables:     false,

		// Per-move budget handed to the engine; it keeps its own safety margin.
		AiTimeoutSecs: 2,
		OpeningPlies:  0,

		LogLevel: "info",
	}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	newConfig = newConfig.normalized()
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
	applyLogLevel(newConfig.LogLevel)
}

func (c Config) normalized() Config {
	if c.AiTimeoutSecs < 1 {
		c.AiTimeoutSecs = 1
	}
	if c.AiTimeoutSecs > 60 {
		c.AiTimeoutSecs = 60
	}
	if c.GhostThrottleMs < 0 {
		c.GhostThrottleMs = 0
	}
	if c.OpeningPlies < 0 {
		c.OpeningPlies = 0
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil || c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

func (c Config) ghostThrottle() time.Duration {
	return time.Duration(c.GhostThrottleMs) * time.Millisecond
}

func applyLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// setupLogging points the global logger at stdout, as JSON or as a console
// stream depending on format.
func setupLogging(level, format string) {
	var out io.Writer = os.Stdout
	if !strings.EqualFold(format, "json") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "backend").Logger()
	applyLogLevel(level)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
