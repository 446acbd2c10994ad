// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for local databases (always absolute)
	APIBaseURL     string // Remote backend base URL
	APIToken       string // Initial bearer token (settings DB takes precedence)
	RequestTimeout time.Duration
	RefreshCron    string // Cron spec for the background refresh job
	LogLevel       string
	Pretty         bool
	Port           int // Port for the stub server binary
	DevMode        bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check TRACKFOLIO_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("TRACKFOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		APIBaseURL:     getEnv("TRACKFOLIO_API_URL", "http://localhost:8090"),
		APIToken:       getEnv("TRACKFOLIO_API_TOKEN", ""),
		RequestTimeout: getEnvAsDuration("TRACKFOLIO_REQUEST_TIMEOUT", 30*time.Second),
		RefreshCron:    getEnv("TRACKFOLIO_REFRESH_CRON", "@every 5m"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Pretty:         getEnvAsBool("LOG_PRETTY", false),
		Port:           getEnvAsInt("STUB_PORT", 8090),
		DevMode:        getEnvAsBool("DEV_MODE", false),
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
