// Package history persists completed test results
package history

import (
	"context"
	"sync"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// DefaultMaxPerTest bounds how many results the in-memory store keeps
// for each test before old ones rotate out.
const DefaultMaxPerTest = 100

// MemoryStore keeps recent results per test in memory.
type MemoryStore struct {
	mu         sync.RWMutex
	results    map[string][]model.TestResult
	maxPerTest int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store keeping up to maxPerTest
// results per test. Zero or negative means DefaultMaxPerTest.
func NewMemoryStore(maxPerTest int) *MemoryStore {
	if maxPerTest <= 0 {
		maxPerTest = DefaultMaxPerTest
	}
	return &MemoryStore{
		results:    make(map[string][]model.TestResult),
		maxPerTest: maxPerTest,
	}
}

func (s *MemoryStore) Append(ctx context.Context, result model.TestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.results[result.TestID], result)
	if len(list) > s.maxPerTest {
		list = list[len(list)-s.maxPerTest:]
	}
	s.results[result.TestID] = list
	return nil
}

// History returns up to limit results for testID, newest first. A limit
// of zero or less returns everything retained.
func (s *MemoryStore) History(ctx context.Context, testID string, limit int) ([]model.TestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.results[testID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	out := make([]model.TestResult, 0, limit)
	for i := len(list) - 1; i >= len(list)-limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
