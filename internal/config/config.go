package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel string

	// Stats worker
	StatsBuffer int

	// Seed sample transactions on first run in addition to the default
	// category taxonomy.
	SeedSamples bool
}

func Load() *Config {
	return &Config{
		DBPath:      getEnv("SPENDRILL_DB_PATH", "./data/spendrill.db"),
		LogLevel:    getEnv("SPENDRILL_LOG_LEVEL", "info"),
		StatsBuffer: getEnvInt("SPENDRILL_STATS_BUFFER", 4),
		SeedSamples: getEnvBool("SPENDRILL_SEED", false),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	} else {
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.StatsBuffer < 1 {
		errs = append(errs, fmt.Sprintf("invalid stats buffer %d: must be at least 1", c.StatsBuffer))
	} else if c.StatsBuffer > 1024 {
		errs = append(errs, fmt.Sprintf("invalid stats buffer %d: must be at most 1024", c.StatsBuffer))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
