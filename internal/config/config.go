// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// Avatar blob store
	AvatarDir string

	// Ledger engine
	MaxWriteAttempts int
}

// Load reads configuration from environment variables, falling back to
// defaults suitable for local development.
func Load() *Config {
	return &Config{
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/spendbook.db"),
		AvatarDir:        getEnv("AVATAR_DIR", "./data/images"),
		MaxWriteAttempts: getEnvInt("MAX_WRITE_ATTEMPTS", 3),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
