// Package aggregator turns raw run metrics into finished test results
package aggregator

import (
	"sort"
	"strings"
	"time"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
	"github.com/service-perf-validator/loadtest-engine/internal/runner"
)

// Aggregate converts a drained run snapshot into an immutable TestResult.
// It is pure given its inputs so it can be tested without running workers.
func Aggregate(runID string, def model.TestDefinition, start, end time.Time, snap runner.Snapshot) model.TestResult {
	durationMs := end.Sub(start).Milliseconds()
	metrics := computeMetrics(snap, durationMs)
	violations := EvaluateThresholds(metrics, def.Config.Thresholds)

	return model.TestResult{
		TestID:              def.ID,
		RunID:               runID,
		StartTime:           start,
		EndTime:             end,
		DurationMs:          durationMs,
		Status:              StatusFor(violations),
		Metrics:             metrics,
		Endpoints:           endpointSummaries(snap),
		Errors:              errorSummaries(snap),
		ThresholdViolations: violations,
	}
}

// StartupFailure builds the result for a run that could not start at all:
// status failed, zero metrics, and a single synthetic error describing why.
func StartupFailure(runID string, def model.TestDefinition, now time.Time, reason error) model.TestResult {
	return model.TestResult{
		TestID:    def.ID,
		RunID:     runID,
		StartTime: now,
		EndTime:   now,
		Status:    model.StatusFailed,
		Errors: []model.ErrorSummary{
			{
				Kind:    model.ErrorKindStartupFailure,
				Message: reason.Error(),
				Count:   1,
			},
		},
	}
}

func computeMetrics(snap runner.Snapshot, durationMs int64) model.ResultMetrics {
	m := model.ResultMetrics{
		TotalRequests:      snap.TotalRequests,
		SuccessfulRequests: snap.SuccessCount,
		FailedRequests:     snap.FailureCount,
	}

	if len(snap.LatenciesMs) > 0 {
		sorted := make([]float64, len(snap.LatenciesMs))
		copy(sorted, snap.LatenciesMs)
		sort.Float64s(sorted)

		var total float64
		for _, v := range sorted {
			total += v
		}
		m.AvgResponseTimeMs = total / float64(len(sorted))
		m.MinResponseTimeMs = sorted[0]
		m.MaxResponseTimeMs = sorted[len(sorted)-1]
		m.P95ResponseTimeMs = sorted[percentileIndex(len(sorted), 0.95)]
		m.P99ResponseTimeMs = sorted[percentileIndex(len(sorted), 0.99)]
	}

	if durationMs > 0 {
		m.ThroughputPerSec = float64(snap.TotalRequests) / (float64(durationMs) / 1000.0)
	}
	if snap.TotalRequests > 0 {
		m.ErrorRatePercent = float64(snap.FailureCount) / float64(snap.TotalRequests) * 100.0
	}

	return m
}

// percentileIndex is floor(n*p), clamped to [0, n-1]
func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func endpointSummaries(snap runner.Snapshot) []model.EndpointResult {
	if len(snap.PerEndpoint) == 0 {
		return nil
	}

	endpoints := make([]model.EndpointResult, 0, len(snap.PerEndpoint))
	for key, stats := range snap.PerEndpoint {
		method, url := splitEndpointKey(key)
		count := stats.Successes + stats.Failures

		var avg float64
		if len(stats.LatenciesMs) > 0 {
			var total float64
			for _, v := range stats.LatenciesMs {
				total += v
			}
			avg = total / float64(len(stats.LatenciesMs))
		}

		var successRate float64
		if count > 0 {
			successRate = float64(stats.Successes) / float64(count) * 100.0
		}

		endpoints = append(endpoints, model.EndpointResult{
			URL:                url,
			Method:             method,
			AvgResponseTimeMs:  avg,
			SuccessRatePercent: successRate,
			RequestCount:       count,
		})
	}

	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].URL != endpoints[j].URL {
			return endpoints[i].URL < endpoints[j].URL
		}
		return endpoints[i].Method < endpoints[j].Method
	})
	return endpoints
}

func splitEndpointKey(key string) (method, url string) {
	if i := strings.Index(key, " "); i >= 0 {
		return key[:i], key[i+1:]
	}
	return "", key
}

func errorSummaries(snap runner.Snapshot) []model.ErrorSummary {
	if len(snap.ErrorTally) == 0 {
		return nil
	}

	errors := make([]model.ErrorSummary, 0, len(snap.ErrorTally))
	for kind, count := range snap.ErrorTally {
		var percentage float64
		if snap.TotalRequests > 0 {
			percentage = float64(count) / float64(snap.TotalRequests) * 100.0
		}
		errors = append(errors, model.ErrorSummary{
			Kind:       kind,
			Message:    errorMessage(kind),
			Count:      count,
			Percentage: percentage,
		})
	}

	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Kind < errors[j].Kind
	})
	return errors
}

func errorMessage(kind string) string {
	switch kind {
	case model.ErrorKindNetwork:
		return "transport error before a response was received"
	case model.ErrorKindUnexpectedStatus:
		return "response status outside the expected range"
	case model.ErrorKindWorkerPanic:
		return "worker terminated unexpectedly mid-run"
	default:
		return kind
	}
}
