// Package executor issues the individual requests a load run dispatches.
package executor

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/service-perf-validator/loadtest-engine/internal/runner"
)

// ErrSimulatedTransport is the transport failure a simulated run injects.
var ErrSimulatedTransport = errors.New("simulated transport failure")

// SimulatedConfig controls the modelled target.
type SimulatedConfig struct {
	BaseLatency time.Duration
	Jitter      time.Duration
	FailureRate float64 // fraction of requests that fail, 0 to 1
	Seed        int64   // zero seeds from the clock
}

// SimulatedExecutor models a target without sending traffic. Latency is
// drawn uniformly from [BaseLatency, BaseLatency+Jitter] and actually
// waited out, so run pacing behaves like a real target. Failures
// alternate between HTTP 500 responses and transport errors.
type SimulatedExecutor struct {
	mu          sync.Mutex
	rng         *rand.Rand
	baseLatency time.Duration
	jitter      time.Duration
	failureRate float64
	nextIsDrop  bool
}

var _ runner.RequestExecutor = (*SimulatedExecutor)(nil)

func NewSimulatedExecutor(cfg SimulatedConfig) *SimulatedExecutor {
	if cfg.BaseLatency <= 0 {
		cfg.BaseLatency = 20 * time.Millisecond
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	if cfg.FailureRate < 0 {
		cfg.FailureRate = 0
	}
	if cfg.FailureRate > 1 {
		cfg.FailureRate = 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedExecutor{
		rng:         rand.New(rand.NewSource(seed)),
		baseLatency: cfg.BaseLatency,
		jitter:      cfg.Jitter,
		failureRate: cfg.FailureRate,
	}
}

func (e *SimulatedExecutor) Execute(ctx context.Context, req runner.Request) (runner.Response, error) {
	e.mu.Lock()
	latency := e.baseLatency
	if e.jitter > 0 {
		latency += time.Duration(e.rng.Int63n(int64(e.jitter)))
	}
	fail := e.rng.Float64() < e.failureRate
	drop := false
	if fail {
		drop = e.nextIsDrop
		e.nextIsDrop = !e.nextIsDrop
	}
	e.mu.Unlock()

	timer := time.NewTimer(latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return runner.Response{}, ctx.Err()
	case <-timer.C:
	}

	elapsedMs := float64(latency.Milliseconds())
	if fail {
		if drop {
			return runner.Response{}, ErrSimulatedTransport
		}
		return runner.Response{StatusCode: http.StatusInternalServerError, ElapsedMs: elapsedMs}, nil
	}
	return runner.Response{StatusCode: http.StatusOK, ElapsedMs: elapsedMs}, nil
}
