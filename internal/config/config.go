package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Path to the messenger's UDB file (foreign, read-only)
	UDBPath string

	// Owned databases
	CachePath      string
	ScheduleDBPath string

	// Search settings
	SearchResultLimit int
	SearchCacheSize   int

	// Quiet hours during which auto-show is suppressed, "HHMM-HHMM" ranges
	ClassTimes []string

	LogLevel string
}

// LoadConfig loads configuration from a .env file (if present) and
// environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", defaultDataDir())

	cfg := &Config{
		UDBPath:           getEnv("UDB_PATH", ""),
		CachePath:         getEnv("CACHE_PATH", filepath.Join(dataDir, "search.db")),
		ScheduleDBPath:    getEnv("SCHEDULE_DB_PATH", filepath.Join(dataDir, "schedule.db")),
		SearchResultLimit: getEnvInt("SEARCH_RESULT_LIMIT", 100),
		SearchCacheSize:   getEnvInt("SEARCH_CACHE_SIZE", 50),
		ClassTimes:        getEnvList("CLASS_TIMES"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks the configuration for required values
func (c *Config) Validate() error {
	if c.UDBPath == "" {
		return fmt.Errorf("UDB_PATH is required")
	}
	if c.CachePath == "" {
		return fmt.Errorf("CACHE_PATH is required")
	}
	if c.SearchResultLimit <= 0 {
		return fmt.Errorf("SEARCH_RESULT_LIMIT must be positive")
	}
	if c.SearchCacheSize <= 0 {
		return fmt.Errorf("SEARCH_CACHE_SIZE must be positive")
	}
	return nil
}

// defaultDataDir returns the per-user data directory for owned databases
func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "udbridge")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable as a string slice
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
