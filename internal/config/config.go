// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageGCS    = "gcs"
	StorageMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	Port     int
	LogLevel string

	Storage   string // sqlite, gcs or memory
	DBPath    string
	GCSBucket string
	GCSPrefix string
	GCSURI    string // gs://bucket/prefix, overrides bucket and prefix

	GeminiAPIKey    string // empty disables the analysis gateway
	GeminiModel     string
	AnalysisTimeout time.Duration

	LowStockThreshold int64

	BigQueryProjectID string
	BigQueryDataset   string

	NotionToken      string
	NotionDatabaseID string
}

// Load reads configuration from environment variables, after loading a
// .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnvAsInt("LEDGER_PORT", 8080),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Storage:           strings.ToLower(getEnv("LEDGER_STORAGE", StorageSQLite)),
		DBPath:            getEnv("LEDGER_DB_PATH", "ledger.db"),
		GCSBucket:         getEnv("LEDGER_GCS_BUCKET", ""),
		GCSPrefix:         getEnv("LEDGER_GCS_PREFIX", "ledger/"),
		GCSURI:            getEnv("LEDGER_GCS_URI", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AnalysisTimeout:   getEnvAsDuration("ANALYSIS_TIMEOUT", 60*time.Second),
		LowStockThreshold: int64(getEnvAsInt("LOW_STOCK_THRESHOLD", 5)),
		BigQueryProjectID: getEnv("BQ_PROJECT_ID", ""),
		BigQueryDataset:   getEnv("BQ_DATASET", "ledger"),
		NotionToken:       getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID:  getEnv("NOTION_DATABASE_ID", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option combinations.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageMemory:
	case StorageGCS:
		if c.GCSURI != "" {
			if !strings.HasPrefix(c.GCSURI, "gs://") {
				return fmt.Errorf("LEDGER_GCS_URI must start with gs://, got %q", c.GCSURI)
			}
		} else if c.GCSBucket == "" {
			return fmt.Errorf("LEDGER_GCS_BUCKET or LEDGER_GCS_URI is required when LEDGER_STORAGE=gcs")
		}
	default:
		return fmt.Errorf("unknown LEDGER_STORAGE %q (want sqlite, gcs or memory)", c.Storage)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid LEDGER_PORT %d", c.Port)
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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
