// Package config handles application configuration
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Executor kinds supported by EXECUTOR.
const (
	ExecutorHTTP      = "http"
	ExecutorSimulated = "simulated"
)

// History backends supported by HISTORY_BACKEND.
const (
	HistoryMemory   = "memory"
	HistoryPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	// Environment (development, production)
	Environment string

	// HTTP server port
	HTTPPort int

	// Executor kind: http, simulated
	Executor string

	// Per-request timeout for the HTTP executor, in seconds
	RequestTimeoutSeconds int

	// Idle connection pool size for the HTTP executor
	MaxConnections int

	// Result history configuration
	History HistoryConfig

	// Result archive configuration
	Archive ArchiveConfig

	// Webhook URL for warning and failure alerts (empty disables alerting)
	AlertWebhookURL string

	// Optional YAML file with test definitions to register at startup
	DefinitionsFile string
}

// HistoryConfig holds result history configuration
type HistoryConfig struct {
	// Backend type: memory, postgres
	Backend string
	// Database connection string for the postgres backend
	DatabaseURL string
	// Retained results per test
	Limit int
}

// ArchiveConfig holds result archive configuration
type ArchiveConfig struct {
	// Backend type: local, s3, minio (empty disables archiving)
	Backend string
	// Local storage path
	LocalPath string
	// S3/MinIO endpoint (for MinIO or custom S3-compatible storage)
	Endpoint string
	// S3 region
	Region string
	// S3 bucket name
	Bucket string
	// Access key ID for S3/MinIO
	AccessKeyID string
	// Secret access key for S3/MinIO
	SecretAccessKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:           getEnv("ENVIRONMENT", "development"),
		HTTPPort:              getEnvInt("ENGINE_HTTP_PORT", 8080),
		Executor:              getEnv("EXECUTOR", ExecutorHTTP),
		RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT_SECONDS", 10),
		MaxConnections:        getEnvInt("MAX_CONNECTIONS", 50),
		History: HistoryConfig{
			Backend:     getEnv("HISTORY_BACKEND", HistoryMemory),
			DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/loadtest?sslmode=disable"),
			Limit:       getEnvInt("HISTORY_LIMIT", 100),
		},
		Archive: ArchiveConfig{
			Backend:         getEnv("ARCHIVE_BACKEND", ""),
			LocalPath:       getEnv("ARCHIVE_LOCAL_PATH", "/var/lib/loadtest/results"),
			Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
			Region:          getEnv("ARCHIVE_REGION", "us-east-1"),
			Bucket:          getEnv("ARCHIVE_BUCKET", "loadtest-results"),
			AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
		},
		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),
		DefinitionsFile: getEnv("DEFINITIONS_FILE", ""),
	}

	if cfg.Executor != ExecutorHTTP && cfg.Executor != ExecutorSimulated {
		return nil, fmt.Errorf("unknown executor %q", cfg.Executor)
	}
	if cfg.History.Backend != HistoryMemory && cfg.History.Backend != HistoryPostgres {
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}

	return cfg, nil
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
