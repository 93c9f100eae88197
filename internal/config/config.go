// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for crm.db and ledger snapshots (always absolute)
	Port               int
	LogLevel           string
	DevMode            bool
	ScanHour           int    // Wall-clock hour (0-23) for the daily compliance scan
	OwnerRecipient     string // Recipient for run summaries and failure notifications
	LedgerSnapshotPath string // Empty disables ledger snapshot persistence
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CRM_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	snapshotPath := getEnv("LEDGER_SNAPSHOT_PATH", "")
	if snapshotPath == "" && getEnvAsBool("LEDGER_SNAPSHOT_ENABLED", true) {
		snapshotPath = filepath.Join(absDataDir, "alert_history.msgpack")
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8010),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		ScanHour:           getEnvAsInt("COMPLIANCE_SCAN_HOUR", 6),
		OwnerRecipient:     getEnv("OWNER_RECIPIENT", "ops"),
		LedgerSnapshotPath: snapshotPath,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.ScanHour < 0 || c.ScanHour > 23 {
		return fmt.Errorf("COMPLIANCE_SCAN_HOUR must be between 0 and 23, got %d", c.ScanHour)
	}
	return nil
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
