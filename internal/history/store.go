// Package history persists completed test results
package history

import (
	"context"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// Store is the append-only run history, keyed by test id and read back
// newest first. Appends happen after a run's workers have joined, so
// implementations never see concurrent writes for the same run.
type Store interface {
	Append(ctx context.Context, result model.TestResult) error
	History(ctx context.Context, testID string, limit int) ([]model.TestResult, error)
	Close() error
}
