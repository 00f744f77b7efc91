// Package runner provides the core load-test execution engine.
package runner

import (
	"sync"
	"sync/atomic"
)

// Accumulator is the concurrent-safe metric store for one active run. It is
// created at run start, written by every worker, and drained exactly once
// into a snapshot after all workers have joined. Counters are atomic and the
// collection fields carry their own locks, so high-frequency recording never
// serializes on a single structure-wide mutex.
type Accumulator struct {
	totalRequests atomic.Int64
	successCount  atomic.Int64
	failureCount  atomic.Int64

	latMu       sync.Mutex
	latenciesMs []float64

	epMu        sync.Mutex
	perEndpoint map[string]*endpointTally

	errMu      sync.Mutex
	errorTally map[string]int64
}

type endpointTally struct {
	latenciesMs []float64
	successes   int64
	failures    int64
}

// Snapshot is an immutable copy of accumulated metrics, consistent per field
// at the moment it was taken.
type Snapshot struct {
	TotalRequests int64
	SuccessCount  int64
	FailureCount  int64
	LatenciesMs   []float64
	PerEndpoint   map[string]EndpointStats
	ErrorTally    map[string]int64
}

// EndpointStats holds one endpoint's raw samples within a snapshot.
type EndpointStats struct {
	LatenciesMs []float64
	Successes   int64
	Failures    int64
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		perEndpoint: make(map[string]*endpointTally),
		errorTally:  make(map[string]int64),
	}
}

// RecordOutcome records one completed request. The endpoint key is
// "METHOD path". An empty errorKind means the failure carries no
// classified cause; successes ignore errorKind entirely.
func (a *Accumulator) RecordOutcome(endpointKey string, latencyMs float64, success bool, errorKind string) {
	a.totalRequests.Add(1)
	if success {
		a.successCount.Add(1)
	} else {
		a.failureCount.Add(1)
	}

	a.latMu.Lock()
	a.latenciesMs = append(a.latenciesMs, latencyMs)
	a.latMu.Unlock()

	a.epMu.Lock()
	tally, ok := a.perEndpoint[endpointKey]
	if !ok {
		tally = &endpointTally{}
		a.perEndpoint[endpointKey] = tally
	}
	tally.latenciesMs = append(tally.latenciesMs, latencyMs)
	if success {
		tally.successes++
	} else {
		tally.failures++
	}
	a.epMu.Unlock()

	if !success && errorKind != "" {
		a.RecordError(errorKind)
	}
}

// RecordError counts an error that is not tied to a request outcome, such
// as a recovered worker crash.
func (a *Accumulator) RecordError(kind string) {
	a.errMu.Lock()
	a.errorTally[kind]++
	a.errMu.Unlock()
}

// Snapshot copies the current state for aggregation. Recording may continue
// afterwards without affecting the returned copy.
func (a *Accumulator) Snapshot() Snapshot {
	snap := Snapshot{
		TotalRequests: a.totalRequests.Load(),
		SuccessCount:  a.successCount.Load(),
		FailureCount:  a.failureCount.Load(),
	}

	a.latMu.Lock()
	snap.LatenciesMs = make([]float64, len(a.latenciesMs))
	copy(snap.LatenciesMs, a.latenciesMs)
	a.latMu.Unlock()

	a.epMu.Lock()
	snap.PerEndpoint = make(map[string]EndpointStats, len(a.perEndpoint))
	for key, tally := range a.perEndpoint {
		latencies := make([]float64, len(tally.latenciesMs))
		copy(latencies, tally.latenciesMs)
		snap.PerEndpoint[key] = EndpointStats{
			LatenciesMs: latencies,
			Successes:   tally.successes,
			Failures:    tally.failures,
		}
	}
	a.epMu.Unlock()

	a.errMu.Lock()
	snap.ErrorTally = make(map[string]int64, len(a.errorTally))
	for kind, count := range a.errorTally {
		snap.ErrorTally[kind] = count
	}
	a.errMu.Unlock()

	return snap
}
