// Package runner provides the core load-test execution engine.
package runner

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/service-perf-validator/loadtest-engine/internal/catalog"
	"github.com/service-perf-validator/loadtest-engine/internal/model"
	"github.com/service-perf-validator/loadtest-engine/pkg/common"
)

// Request is one dispatched request, fully resolved for the executor.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// Response is the executor's view of a completed request. A positive
// ElapsedMs overrides the runner's own wall-clock measurement, letting
// simulated executors report the latency they modelled.
type Response struct {
	StatusCode int
	ElapsedMs  float64
}

// RequestExecutor performs one logical request. A returned error means the
// request never produced a response (transport failure); application-level
// failures are expressed through the status code.
type RequestExecutor interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

// Options configure one run.
type Options struct {
	Concurrency int
	Duration    time.Duration
	RampUp      time.Duration
	Targets     []string
	MinPause    time.Duration // inter-request pause lower bound
	MaxPause    time.Duration // inter-request pause upper bound
}

const (
	defaultMinPause = 100 * time.Millisecond
	defaultMaxPause = 500 * time.Millisecond
)

// Runner drives one run's worker pool against a scenario catalog. Workers
// start on a linear ramp: worker i waits i * (rampUp / concurrency) and then
// runs until the shared deadline, so every worker stops near the same
// wall-clock instant regardless of its start offset.
type Runner struct {
	catalog  *catalog.Catalog
	executor RequestExecutor
	opts     Options
	metrics  *common.Metrics
}

// New creates a runner. Metrics may be nil in tests.
func New(cat *catalog.Catalog, executor RequestExecutor, opts Options, metrics *common.Metrics) *Runner {
	if opts.MinPause <= 0 {
		opts.MinPause = defaultMinPause
	}
	if opts.MaxPause <= opts.MinPause {
		opts.MaxPause = opts.MinPause + defaultMaxPause - defaultMinPause
	}
	return &Runner{
		catalog:  cat,
		executor: executor,
		opts:     opts,
		metrics:  metrics,
	}
}

// Run fans out the configured number of workers and blocks until every one
// of them has finished. The returned snapshot holds everything the workers
// recorded. Cancelling the context moves the effective deadline to now;
// workers observe it at their next check.
func (r *Runner) Run(ctx context.Context) Snapshot {
	acc := NewAccumulator()
	if r.opts.Concurrency <= 0 {
		return acc.Snapshot()
	}

	start := time.Now()
	deadline := start.Add(r.opts.Duration)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Concurrency; i++ {
		wg.Add(1)
		go r.worker(ctx, i, deadline, acc, &wg)
	}
	wg.Wait()

	return acc.Snapshot()
}

// rampDelay returns worker i's start offset on the linear ramp.
func (r *Runner) rampDelay(i int) time.Duration {
	return time.Duration(i) * (r.opts.RampUp / time.Duration(r.opts.Concurrency))
}

// worker is one logical user: wait out the ramp delay, then run weighted
// scenarios until the deadline. A panic anywhere inside the loop is recorded
// and ends only this worker; the run continues with partial data.
func (r *Runner) worker(ctx context.Context, id int, deadline time.Time, acc *Accumulator, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			acc.RecordError(model.ErrorKindWorkerPanic)
			slog.Error("Worker crashed", "worker", id, "panic", rec)
		}
	}()

	if r.metrics != nil {
		r.metrics.ActiveWorkers.Inc()
		defer r.metrics.ActiveWorkers.Dec()
	}

	if !sleepCtx(ctx, r.rampDelay(id)) {
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for time.Now().Before(deadline) && ctx.Err() == nil {
		sc, err := r.catalog.Select(rng)
		if err != nil {
			// Catalog emptied out from under the run; nothing left to do
			return
		}

		for _, req := range sc.Requests {
			if !time.Now().Before(deadline) || ctx.Err() != nil {
				break
			}

			r.issue(ctx, req, rng, acc)

			pause := r.pauseDuration(rng)
			if remaining := time.Until(deadline); pause > remaining {
				pause = remaining
			}
			if !sleepCtx(ctx, pause) {
				return
			}
		}
	}
}

// issue dispatches a single request and records its outcome.
func (r *Runner) issue(ctx context.Context, req model.ScenarioRequest, rng *rand.Rand, acc *Accumulator) {
	key := req.Method + " " + req.Path
	url := r.resolveURL(req.Path, rng)

	start := time.Now()
	resp, err := r.executor.Execute(ctx, Request{
		Method:  req.Method,
		URL:     url,
		Headers: req.Headers,
		Body:    req.Body,
	})
	latencyMs := float64(time.Since(start).Milliseconds())
	if err == nil && resp.ElapsedMs > 0 {
		latencyMs = resp.ElapsedMs
	}

	if r.metrics != nil {
		r.metrics.RequestsTotal.Inc()
		r.metrics.RequestDuration.Observe(latencyMs / 1000.0)
	}

	if err != nil {
		acc.RecordOutcome(key, latencyMs, false, model.ErrorKindNetwork)
		if r.metrics != nil {
			r.metrics.RequestFailures.Inc()
		}
		return
	}

	success := resp.StatusCode < 400
	if req.ExpectedStatus != 0 {
		success = resp.StatusCode == req.ExpectedStatus
	}
	if success {
		acc.RecordOutcome(key, latencyMs, true, "")
		return
	}
	acc.RecordOutcome(key, latencyMs, false, model.ErrorKindUnexpectedStatus)
	if r.metrics != nil {
		r.metrics.RequestFailures.Inc()
	}
}

// resolveURL joins a scenario path to one of the configured targets and
// substitutes path placeholders. Absolute paths bypass target selection.
func (r *Runner) resolveURL(path string, rng *rand.Rand) string {
	resolved := substitutePlaceholders(path)
	if model.IsAbsoluteURL(resolved) || len(r.opts.Targets) == 0 {
		return resolved
	}

	target := r.opts.Targets[rng.Intn(len(r.opts.Targets))]
	target = strings.TrimSuffix(target, "/")
	if resolved == "" {
		return target
	}
	if !strings.HasPrefix(resolved, "/") {
		resolved = "/" + resolved
	}
	return target + resolved
}

// substitutePlaceholders replaces :param path segments with a fixed default
// so templated scenario paths dispatch as concrete URLs.
func substitutePlaceholders(path string) string {
	if !strings.Contains(path, ":") {
		return path
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if len(seg) > 1 && strings.HasPrefix(seg, ":") {
			segments[i] = "1"
		}
	}
	return strings.Join(segments, "/")
}

// pauseDuration draws the randomized inter-request pause.
func (r *Runner) pauseDuration(rng *rand.Rand) time.Duration {
	span := r.opts.MaxPause - r.opts.MinPause
	if span <= 0 {
		return r.opts.MinPause
	}
	return r.opts.MinPause + time.Duration(rng.Int63n(int64(span)))
}

// sleepCtx sleeps for d unless the context is cancelled first. It reports
// whether the full sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
