// Package registry owns test definitions, run coordination and history.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/service-perf-validator/loadtest-engine/internal/aggregator"
	"github.com/service-perf-validator/loadtest-engine/internal/alert"
	"github.com/service-perf-validator/loadtest-engine/internal/archive"
	"github.com/service-perf-validator/loadtest-engine/internal/catalog"
	"github.com/service-perf-validator/loadtest-engine/internal/history"
	"github.com/service-perf-validator/loadtest-engine/internal/model"
	"github.com/service-perf-validator/loadtest-engine/internal/runner"
	"github.com/service-perf-validator/loadtest-engine/internal/schedule"
	"github.com/service-perf-validator/loadtest-engine/pkg/common"
)

var (
	// ErrUnknownTest is returned when a test id is not registered.
	ErrUnknownTest = errors.New("unknown test")
	// ErrRunInProgress is returned when a run for the same test id is
	// still active; concurrent runs of one test never overlap.
	ErrRunInProgress = errors.New("run already in progress")
)

// Options wire the registry's collaborators. Executor, History and
// Scheduler are required; Notifier, Archiver and Metrics may be nil.
type Options struct {
	Executor  runner.RequestExecutor
	History   history.Store
	Scheduler schedule.Scheduler
	Notifier  alert.Notifier
	Archiver  archive.Archiver
	Metrics   *common.Metrics
}

// Registry holds test definitions, their scenario catalogs and active
// recurring triggers, and coordinates runs against them.
type Registry struct {
	executor runner.RequestExecutor
	history  history.Store
	sched    schedule.Scheduler
	notifier alert.Notifier
	archiver archive.Archiver
	metrics  *common.Metrics

	mu       sync.RWMutex
	defs     map[string]model.TestDefinition
	catalogs map[string]*catalog.Catalog
	active   map[string]bool
	handles  map[string]schedule.Handle
}

func New(opts Options) *Registry {
	return &Registry{
		executor: opts.Executor,
		history:  opts.History,
		sched:    opts.Scheduler,
		notifier: opts.Notifier,
		archiver: opts.Archiver,
		metrics:  opts.Metrics,
		defs:     make(map[string]model.TestDefinition),
		catalogs: make(map[string]*catalog.Catalog),
		active:   make(map[string]bool),
		handles:  make(map[string]schedule.Handle),
	}
}

// Register validates and stores a definition, building its scenario
// catalog. Registering an existing id replaces the definition and its
// trigger but leaves stored history untouched. Definitions with an
// enabled schedule start their recurring trigger immediately.
func (r *Registry) Register(def model.TestDefinition) error {
	def.Normalize()
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid definition: %w", err)
	}

	scenarios := def.Scenarios
	if len(scenarios) == 0 {
		scenarios = model.DeriveScenarios(def.Config.Targets)
	}
	cat, err := catalog.New(scenarios)
	if err != nil {
		return fmt.Errorf("building catalog for %s: %w", def.ID, err)
	}

	r.mu.Lock()
	r.unscheduleLocked(def.ID)
	r.defs[def.ID] = def
	r.catalogs[def.ID] = cat
	r.mu.Unlock()

	slog.Info("Registered test definition",
		"testId", def.ID,
		"type", def.TestType,
		"scenarios", cat.Len(),
	)

	if def.Schedule != nil && def.Schedule.Enabled {
		if err := r.Schedule(def.ID); err != nil {
			return fmt.Errorf("scheduling %s: %w", def.ID, err)
		}
	}
	return nil
}

// RunNow executes one run of a registered test and blocks until every
// worker has finished. Unknown ids and overlapping runs are rejected
// synchronously; anything after startup is reported through the result.
func (r *Registry) RunNow(ctx context.Context, testID string) (model.TestResult, error) {
	r.mu.Lock()
	def, ok := r.defs[testID]
	if !ok {
		r.mu.Unlock()
		return model.TestResult{}, fmt.Errorf("%w: %s", ErrUnknownTest, testID)
	}
	if r.active[testID] {
		r.mu.Unlock()
		return model.TestResult{}, fmt.Errorf("%w: %s", ErrRunInProgress, testID)
	}
	r.active[testID] = true
	cat := r.catalogs[testID]
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.active, testID)
		r.mu.Unlock()
	}()

	runID := uuid.New().String()
	start := time.Now()

	if err := cat.Validate(); err != nil {
		slog.Error("Run could not start", "testId", testID, "runId", runID, "error", err)
		result := aggregator.StartupFailure(runID, def, start, err)
		r.store(ctx, result)
		return result, nil
	}

	if r.metrics != nil {
		r.metrics.RunsStarted.Inc()
	}
	slog.Info("Starting run",
		"testId", testID,
		"runId", runID,
		"concurrency", def.Config.Concurrency,
		"durationSeconds", def.Config.DurationSeconds,
	)

	run := runner.New(cat, r.executor, runner.Options{
		Concurrency: def.Config.Concurrency,
		Duration:    time.Duration(def.Config.DurationSeconds) * time.Second,
		RampUp:      time.Duration(def.Config.RampUpSeconds) * time.Second,
		Targets:     def.Config.Targets,
	}, r.metrics)
	snap := run.Run(ctx)
	end := time.Now()

	result := aggregator.Aggregate(runID, def, start, end, snap)
	r.store(ctx, result)

	slog.Info("Run finished",
		"testId", testID,
		"runId", runID,
		"status", result.Status,
		"totalRequests", result.Metrics.TotalRequests,
		"errorRatePercent", result.Metrics.ErrorRatePercent,
	)
	return result, nil
}

// store records a finished run everywhere it needs to go. Storage and
// notification failures are logged, not propagated; the run itself
// completed and its result is still returned to the caller.
func (r *Registry) store(ctx context.Context, result model.TestResult) {
	if err := r.history.Append(ctx, result); err != nil {
		slog.Error("Failed to store result", "testId", result.TestID, "error", err)
	}

	if r.metrics != nil {
		switch result.Status {
		case model.StatusPassed:
			r.metrics.RunsPassed.Inc()
		case model.StatusWarning:
			r.metrics.RunsWarning.Inc()
		case model.StatusFailed:
			r.metrics.RunsFailed.Inc()
		}
	}

	if r.notifier != nil && result.Status != model.StatusPassed {
		if err := r.notifier.Notify(ctx, result); err != nil {
			slog.Error("Alert notification failed", "testId", result.TestID, "error", err)
		}
	}

	if r.archiver != nil {
		if err := r.archiver.Archive(ctx, result); err != nil {
			slog.Error("Failed to archive result", "testId", result.TestID, "error", err)
		}
	}
}

// Schedule starts the recurring trigger for a registered test. Already
// scheduled tests are left as they are.
func (r *Registry) Schedule(testID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.defs[testID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTest, testID)
	}
	if def.Schedule == nil || def.Schedule.CronExpression == "" {
		return fmt.Errorf("test %s has no schedule expression", testID)
	}
	if _, ok := r.handles[testID]; ok {
		return nil
	}

	handle, err := r.sched.Schedule(def.Schedule.CronExpression, def.Schedule.Timezone, func() {
		r.runScheduled(testID)
	})
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", testID, err)
	}

	r.handles[testID] = handle
	if r.metrics != nil {
		r.metrics.ScheduledTests.Inc()
	}
	slog.Info("Scheduled recurring test", "testId", testID, "expression", def.Schedule.CronExpression)
	return nil
}

// runScheduled is the trigger callback. An overlapping firing is
// rejected by RunNow's guard and only logged here.
func (r *Registry) runScheduled(testID string) {
	if _, err := r.RunNow(context.Background(), testID); err != nil {
		slog.Error("Scheduled run rejected", "testId", testID, "error", err)
	}
}

// Unschedule stops the recurring trigger. Unknown ids are a no-op.
func (r *Registry) Unschedule(testID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unscheduleLocked(testID)
}

func (r *Registry) unscheduleLocked(testID string) {
	handle, ok := r.handles[testID]
	if !ok {
		return
	}
	handle.Stop()
	delete(r.handles, testID)
	if r.metrics != nil {
		r.metrics.ScheduledTests.Dec()
	}
	slog.Info("Unscheduled test", "testId", testID)
}

// Definitions returns all registered definitions, ordered by id.
func (r *Registry) Definitions() []model.TestDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]model.TestDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Definition returns one registered definition.
func (r *Registry) Definition(testID string) (model.TestDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[testID]
	if !ok {
		return model.TestDefinition{}, fmt.Errorf("%w: %s", ErrUnknownTest, testID)
	}
	return def, nil
}

// Scheduled reports whether a recurring trigger is active for testID.
func (r *Registry) Scheduled(testID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handles[testID]
	return ok
}

// Catalog returns the live scenario catalog for a test so callers can
// tune scenario weights between runs.
func (r *Registry) Catalog(testID string) (*catalog.Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cat, ok := r.catalogs[testID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTest, testID)
	}
	return cat, nil
}

// History returns the most recent results for a test, newest first.
func (r *Registry) History(ctx context.Context, testID string, limit int) ([]model.TestResult, error) {
	return r.history.History(ctx, testID, limit)
}

// Shutdown stops every recurring trigger.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.handles {
		r.unscheduleLocked(id)
	}
}
