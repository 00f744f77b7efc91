// Package history persists completed test results
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// PostgresConfig holds connection pool settings for the Postgres store.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPostgresConfig returns sensible defaults.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		URL:             "postgres://localhost:5432/loadtest?sslmode=disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

const resultsSchema = `
CREATE TABLE IF NOT EXISTS test_results (
	id         BIGSERIAL PRIMARY KEY,
	test_id    TEXT        NOT NULL,
	run_id     TEXT        NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	status     TEXT        NOT NULL,
	result     JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_test_results_test_start ON test_results (test_id, start_time DESC);
`

// PostgresStore persists results in Postgres, one JSONB row per run.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens a connection pool, verifies connectivity and
// creates the results table if it does not exist yet.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results schema: %w", err)
	}

	slog.Info("Connected to history database", "url", maskConnectionString(cfg.URL))
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, result model.TestResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO test_results (test_id, run_id, start_time, status, result)
		 VALUES ($1, $2, $3, $4, $5)`,
		result.TestID, result.RunID, result.StartTime, string(result.Status), payload)
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}
	return nil
}

// History returns up to limit results for testID, newest first. A limit
// of zero or less falls back to DefaultMaxPerTest.
func (s *PostgresStore) History(ctx context.Context, testID string, limit int) ([]model.TestResult, error) {
	if limit <= 0 {
		limit = DefaultMaxPerTest
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT result FROM test_results
		 WHERE test_id = $1
		 ORDER BY start_time DESC, id DESC
		 LIMIT $2`,
		testID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []model.TestResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		var r model.TestResult
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return results, nil
}

// Health verifies database connectivity.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// maskConnectionString hides credentials for logging.
func maskConnectionString(url string) string {
	at := strings.Index(url, "@")
	if at == -1 {
		return url
	}
	scheme := strings.Index(url, "://")
	if scheme == -1 {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}
