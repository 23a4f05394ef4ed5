package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string

	// RNGSeed fixes every random draw in the engine. Zero means random.
	RNGSeed uint64
	// StrictConditions makes unknown exception condition types fail closed.
	StrictConditions   bool
	SessionTTL         time.Duration
	GuidelinesPerShift int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		DataDir:     getEnv("DATA_DIR", "./data"),
	}

	var err error
	if cfg.RNGSeed, err = strconv.ParseUint(getEnv("RNG_SEED", "0"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid RNG_SEED: %w", err)
	}
	if cfg.StrictConditions, err = strconv.ParseBool(getEnv("STRICT_CONDITIONS", "false")); err != nil {
		return nil, fmt.Errorf("invalid STRICT_CONDITIONS: %w", err)
	}
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.GuidelinesPerShift, err = strconv.Atoi(getEnv("GUIDELINES_PER_SHIFT", "5")); err != nil {
		return nil, fmt.Errorf("invalid GUIDELINES_PER_SHIFT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that parsing alone can't catch.
func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.GuidelinesPerShift < 1 {
		return fmt.Errorf("GUIDELINES_PER_SHIFT must be at least 1, got %d", c.GuidelinesPerShift)
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
