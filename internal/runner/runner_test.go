// Package runner provides the core load-test execution engine.
package runner

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/service-perf-validator/loadtest-engine/internal/catalog"
	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

// fakeExecutor returns a scripted response for every request.
type fakeExecutor struct {
	calls      atomic.Int64
	statusCode int
	err        error
	delay      time.Duration
	panicOnce  atomic.Bool
}

func (f *fakeExecutor) Execute(ctx context.Context, req Request) (Response, error) {
	f.calls.Add(1)
	if f.panicOnce.CompareAndSwap(true, false) {
		panic("executor blew up")
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return Response{}, f.err
	}
	return Response{StatusCode: f.statusCode, ElapsedMs: float64(f.delay.Milliseconds())}, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]model.Scenario{
		{
			Name:   "browse",
			Weight: 1,
			Requests: []model.ScenarioRequest{
				{Method: "GET", Path: "/products"},
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func fastOptions(concurrency int, duration time.Duration) Options {
	return Options{
		Concurrency: concurrency,
		Duration:    duration,
		Targets:     []string{"http://localhost:9999"},
		MinPause:    time.Millisecond,
		MaxPause:    2 * time.Millisecond,
	}
}

func TestRunCollectsOutcomes(t *testing.T) {
	exec := &fakeExecutor{statusCode: 200}
	r := New(testCatalog(t), exec, fastOptions(4, 250*time.Millisecond), nil)

	start := time.Now()
	snap := r.Run(context.Background())
	elapsed := time.Since(start)

	if snap.TotalRequests == 0 {
		t.Fatal("Expected requests to be recorded")
	}
	if snap.TotalRequests != exec.calls.Load() {
		t.Errorf("Expected %d recorded outcomes, got %d", exec.calls.Load(), snap.TotalRequests)
	}
	if snap.FailureCount != 0 {
		t.Errorf("Expected no failures, got %d", snap.FailureCount)
	}
	if elapsed > 700*time.Millisecond {
		t.Errorf("Expected run to finish near its deadline, took %v", elapsed)
	}
	if _, ok := snap.PerEndpoint["GET /products"]; !ok {
		t.Errorf("Expected endpoint key %q, got %v", "GET /products", snap.PerEndpoint)
	}
}

func TestRunRecordsTransportErrors(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("connection refused")}
	r := New(testCatalog(t), exec, fastOptions(2, 150*time.Millisecond), nil)

	snap := r.Run(context.Background())

	if snap.TotalRequests == 0 {
		t.Fatal("Expected requests to be recorded")
	}
	if snap.SuccessCount != 0 {
		t.Errorf("Expected no successes, got %d", snap.SuccessCount)
	}
	if snap.ErrorTally[model.ErrorKindNetwork] != snap.FailureCount {
		t.Errorf("Expected all failures tallied as network errors, got %v", snap.ErrorTally)
	}
}

func TestRunRecordsUnexpectedStatus(t *testing.T) {
	exec := &fakeExecutor{statusCode: 500}
	r := New(testCatalog(t), exec, fastOptions(2, 150*time.Millisecond), nil)

	snap := r.Run(context.Background())

	if snap.SuccessCount != 0 {
		t.Errorf("Expected 500s to count as failures, got %d successes", snap.SuccessCount)
	}
	if snap.ErrorTally[model.ErrorKindUnexpectedStatus] == 0 {
		t.Error("Expected unexpected_status errors to be tallied")
	}
}

func TestRunHonorsExpectedStatus(t *testing.T) {
	c, err := catalog.New([]model.Scenario{
		{
			Name:   "missing-page",
			Weight: 1,
			Requests: []model.ScenarioRequest{
				{Method: "GET", Path: "/gone", ExpectedStatus: 404},
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	exec := &fakeExecutor{statusCode: 404}
	r := New(c, exec, fastOptions(2, 150*time.Millisecond), nil)

	snap := r.Run(context.Background())

	if snap.TotalRequests == 0 {
		t.Fatal("Expected requests to be recorded")
	}
	if snap.FailureCount != 0 {
		t.Errorf("Expected 404 to match expectedStatus, got %d failures", snap.FailureCount)
	}
}

func TestRunRecoversWorkerPanic(t *testing.T) {
	exec := &fakeExecutor{statusCode: 200}
	exec.panicOnce.Store(true)

	r := New(testCatalog(t), exec, fastOptions(3, 200*time.Millisecond), nil)

	done := make(chan Snapshot, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case snap := <-done:
		if snap.ErrorTally[model.ErrorKindWorkerPanic] != 1 {
			t.Errorf("Expected exactly one recorded panic, got %d", snap.ErrorTally[model.ErrorKindWorkerPanic])
		}
		if snap.TotalRequests == 0 {
			t.Error("Expected surviving workers to keep recording")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not complete after a worker panic")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	exec := &fakeExecutor{statusCode: 200}
	r := New(testCatalog(t), exec, fastOptions(4, 10*time.Second), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Snapshot, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestRunZeroConcurrency(t *testing.T) {
	exec := &fakeExecutor{statusCode: 200}
	r := New(testCatalog(t), exec, Options{Concurrency: 0, Duration: time.Second}, nil)

	snap := r.Run(context.Background())
	if snap.TotalRequests != 0 {
		t.Errorf("Expected no requests without workers, got %d", snap.TotalRequests)
	}
}

func TestRampDelay(t *testing.T) {
	r := New(testCatalog(t), &fakeExecutor{statusCode: 200}, Options{
		Concurrency: 10,
		Duration:    60 * time.Second,
		RampUp:      10 * time.Second,
	}, nil)

	tests := []struct {
		worker int
		want   time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{5, 5 * time.Second},
		{9, 9 * time.Second},
	}
	for _, tt := range tests {
		if got := r.rampDelay(tt.worker); got != tt.want {
			t.Errorf("Worker %d: expected delay %v, got %v", tt.worker, tt.want, got)
		}
	}
}

func TestRampDelayBeyondDuration(t *testing.T) {
	// Workers whose ramp delay exceeds the run duration never issue traffic
	exec := &fakeExecutor{statusCode: 200}
	r := New(testCatalog(t), exec, Options{
		Concurrency: 2,
		Duration:    100 * time.Millisecond,
		RampUp:      time.Second,
		Targets:     []string{"http://localhost:9999"},
		MinPause:    time.Millisecond,
		MaxPause:    2 * time.Millisecond,
	}, nil)

	start := time.Now()
	r.Run(context.Background())
	elapsed := time.Since(start)

	// Worker 1 sleeps its 500ms delay before noticing the deadline passed,
	// so the join happens after the delay, not after the full ramp
	if elapsed < 450*time.Millisecond || elapsed > 1500*time.Millisecond {
		t.Errorf("Expected run to end once the delayed worker woke, took %v", elapsed)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		targets []string
		want    string
	}{
		{
			name:    "relative path joined to target",
			path:    "/api/users",
			targets: []string{"http://svc:8080"},
			want:    "http://svc:8080/api/users",
		},
		{
			name:    "trailing slash trimmed",
			path:    "/api/users",
			targets: []string{"http://svc:8080/"},
			want:    "http://svc:8080/api/users",
		},
		{
			name:    "missing leading slash added",
			path:    "api/users",
			targets: []string{"http://svc:8080"},
			want:    "http://svc:8080/api/users",
		},
		{
			name:    "absolute path bypasses targets",
			path:    "https://other/api",
			targets: []string{"http://svc:8080"},
			want:    "https://other/api",
		},
		{
			name:    "empty path hits target root",
			path:    "",
			targets: []string{"http://svc:8080"},
			want:    "http://svc:8080",
		},
		{
			name:    "placeholder substituted",
			path:    "/api/users/:id/orders",
			targets: []string{"http://svc:8080"},
			want:    "http://svc:8080/api/users/1/orders",
		},
		{
			name:    "placeholder in absolute path",
			path:    "http://svc:8080/users/:id",
			targets: nil,
			want:    "http://svc:8080/users/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(testCatalog(t), &fakeExecutor{statusCode: 200}, Options{
				Concurrency: 1,
				Duration:    time.Second,
				Targets:     tt.targets,
			}, nil)
			rng := newTestRand()
			if got := r.resolveURL(tt.path, rng); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPauseDurationBounds(t *testing.T) {
	r := New(testCatalog(t), &fakeExecutor{statusCode: 200}, Options{
		Concurrency: 1,
		Duration:    time.Second,
		MinPause:    100 * time.Millisecond,
		MaxPause:    500 * time.Millisecond,
	}, nil)

	rng := newTestRand()
	for i := 0; i < 1000; i++ {
		p := r.pauseDuration(rng)
		if p < 100*time.Millisecond || p >= 500*time.Millisecond {
			t.Fatalf("Pause %v outside [100ms, 500ms)", p)
		}
	}
}
