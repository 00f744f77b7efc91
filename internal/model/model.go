// Package model defines the shared data model for the load-testing engine
package model

import (
	"fmt"
	"strings"
	"time"
)

// TestType describes the intent of a test definition
type TestType string

// Supported test types
const (
	TestTypeLoad       TestType = "load"
	TestTypeStress     TestType = "stress"
	TestTypeEndurance  TestType = "endurance"
	TestTypeSpike      TestType = "spike"
	TestTypeRegression TestType = "regression"
)

// TestStatus is the final classification of a completed run
type TestStatus string

// Run status values
const (
	StatusPassed  TestStatus = "passed"
	StatusWarning TestStatus = "warning"
	StatusFailed  TestStatus = "failed"
)

// Severity grades a threshold violation
type Severity string

// Violation severities
const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Error kinds recorded during a run
const (
	ErrorKindNetwork          = "network_error"
	ErrorKindUnexpectedStatus = "unexpected_status"
	ErrorKindWorkerPanic      = "worker_panic"
	ErrorKindStartupFailure   = "startup_failure"
)

// TestDefinition is the immutable configuration for one kind of test
type TestDefinition struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	TestType    TestType   `json:"testType" yaml:"testType"`
	Config      TestConfig `json:"config" yaml:"config"`
	Schedule    *Schedule  `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Scenarios   []Scenario `json:"scenarios,omitempty" yaml:"scenarios,omitempty"`
}

// TestConfig holds the execution parameters for a test
type TestConfig struct {
	DurationSeconds int        `json:"durationSeconds" yaml:"durationSeconds"`
	Concurrency     int        `json:"concurrency" yaml:"concurrency"`
	RampUpSeconds   int        `json:"rampUpSeconds" yaml:"rampUpSeconds"`
	Targets         []string   `json:"targets,omitempty" yaml:"targets,omitempty"`
	Thresholds      Thresholds `json:"thresholds" yaml:"thresholds"`
}

// Thresholds are the pass/fail bounds for a run. A field <= 0 disables
// that check.
type Thresholds struct {
	MaxAvgResponseMs    float64 `json:"maxAvgResponseMs" yaml:"maxAvgResponseMs"`
	MaxErrorRatePercent float64 `json:"maxErrorRatePercent" yaml:"maxErrorRatePercent"`
	MinThroughputPerSec float64 `json:"minThroughputPerSec" yaml:"minThroughputPerSec"`
}

// Schedule describes when a recurring test fires. The expression is
// interpreted by the scheduler collaborator, not by the engine core.
type Schedule struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	CronExpression string `json:"cronExpression" yaml:"cronExpression"`
	Timezone       string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// Scenario is a named, weighted sequence of logical requests
type Scenario struct {
	Name     string            `json:"name" yaml:"name"`
	Weight   float64           `json:"weight" yaml:"weight"`
	Requests []ScenarioRequest `json:"requests" yaml:"requests"`
}

// ScenarioRequest is one logical request inside a scenario. Path may be
// absolute (http:// or https://) or relative to one of the test's targets.
type ScenarioRequest struct {
	Method         string            `json:"method" yaml:"method"`
	Path           string            `json:"path" yaml:"path"`
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body           string            `json:"body,omitempty" yaml:"body,omitempty"`
	ExpectedStatus int               `json:"expectedStatus,omitempty" yaml:"expectedStatus,omitempty"`
}

// TestResult is the immutable snapshot of a completed run
type TestResult struct {
	TestID              string               `json:"testId"`
	RunID               string               `json:"runId"`
	StartTime           time.Time            `json:"startTime"`
	EndTime             time.Time            `json:"endTime"`
	DurationMs          int64                `json:"durationMs"`
	Status              TestStatus           `json:"status"`
	Metrics             ResultMetrics        `json:"metrics"`
	Endpoints           []EndpointResult     `json:"endpoints,omitempty"`
	Errors              []ErrorSummary       `json:"errors,omitempty"`
	ThresholdViolations []ThresholdViolation `json:"thresholdViolations,omitempty"`
}

// ResultMetrics are the aggregate statistics for a run
type ResultMetrics struct {
	TotalRequests      int64   `json:"totalRequests"`
	SuccessfulRequests int64   `json:"successfulRequests"`
	FailedRequests     int64   `json:"failedRequests"`
	AvgResponseTimeMs  float64 `json:"avgResponseTimeMs"`
	MinResponseTimeMs  float64 `json:"minResponseTimeMs"`
	MaxResponseTimeMs  float64 `json:"maxResponseTimeMs"`
	P95ResponseTimeMs  float64 `json:"p95ResponseTimeMs"`
	P99ResponseTimeMs  float64 `json:"p99ResponseTimeMs"`
	ThroughputPerSec   float64 `json:"throughputPerSec"`
	ErrorRatePercent   float64 `json:"errorRatePercent"`
}

// EndpointResult summarizes one endpoint's traffic within a run
type EndpointResult struct {
	URL                string  `json:"url"`
	Method             string  `json:"method"`
	AvgResponseTimeMs  float64 `json:"avgResponseTimeMs"`
	SuccessRatePercent float64 `json:"successRatePercent"`
	RequestCount       int64   `json:"requestCount"`
}

// ErrorSummary counts occurrences of one error kind within a run
type ErrorSummary struct {
	Kind       string  `json:"kind"`
	Message    string  `json:"message"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ThresholdViolation records one metric that missed its configured bound
type ThresholdViolation struct {
	Metric   string   `json:"metric"`
	Expected float64  `json:"expected"`
	Actual   float64  `json:"actual"`
	Severity Severity `json:"severity"`
}

// Normalize fills defaults on a definition before validation
func (d *TestDefinition) Normalize() {
	if d.TestType == "" {
		d.TestType = TestTypeLoad
	}
	if d.Name == "" {
		d.Name = d.ID
	}
}

// Validate checks a definition for configuration errors. It is called
// before a definition is accepted; a run never starts from an invalid one.
func (d *TestDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("test id is required")
	}
	switch d.TestType {
	case TestTypeLoad, TestTypeStress, TestTypeEndurance, TestTypeSpike, TestTypeRegression:
	default:
		return fmt.Errorf("unknown test type %q", d.TestType)
	}
	if d.Config.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", d.Config.Concurrency)
	}
	if d.Config.DurationSeconds <= 0 {
		return fmt.Errorf("duration must be positive, got %d", d.Config.DurationSeconds)
	}
	if d.Config.RampUpSeconds < 0 {
		return fmt.Errorf("ramp-up must not be negative, got %d", d.Config.RampUpSeconds)
	}
	if len(d.Scenarios) == 0 && len(d.Config.Targets) == 0 {
		return fmt.Errorf("definition needs at least one scenario or target")
	}
	for i := range d.Scenarios {
		if err := d.Scenarios[i].Validate(); err != nil {
			return fmt.Errorf("scenario %d: %w", i, err)
		}
		for _, req := range d.Scenarios[i].Requests {
			if !IsAbsoluteURL(req.Path) && len(d.Config.Targets) == 0 {
				return fmt.Errorf("scenario %q uses relative path %q but no targets are configured", d.Scenarios[i].Name, req.Path)
			}
		}
	}
	if d.Schedule != nil && d.Schedule.Enabled && d.Schedule.CronExpression == "" {
		return fmt.Errorf("enabled schedule needs an expression")
	}
	return nil
}

// Validate checks a single scenario
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Weight <= 0 {
		return fmt.Errorf("scenario %q weight must be positive, got %v", s.Name, s.Weight)
	}
	if len(s.Requests) == 0 {
		return fmt.Errorf("scenario %q has no requests", s.Name)
	}
	for i, req := range s.Requests {
		if req.Method == "" {
			return fmt.Errorf("scenario %q request %d has no method", s.Name, i)
		}
	}
	return nil
}

// IsAbsoluteURL reports whether a scenario path already carries its own
// scheme and host.
func IsAbsoluteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// DeriveScenarios builds the default scenario set for a definition that
// declares only targets: one single-GET scenario per target, equal weight.
func DeriveScenarios(targets []string) []Scenario {
	scenarios := make([]Scenario, 0, len(targets))
	for i, target := range targets {
		scenarios = append(scenarios, Scenario{
			Name:   fmt.Sprintf("target-%d", i+1),
			Weight: 1,
			Requests: []ScenarioRequest{
				{Method: "GET", Path: target},
			},
		})
	}
	return scenarios
}
