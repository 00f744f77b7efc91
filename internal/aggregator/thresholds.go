// Package aggregator turns raw run metrics into finished test results
package aggregator

import (
	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// Metric names used in threshold violations
const (
	MetricAvgResponseTime = "avgResponseTimeMs"
	MetricErrorRate       = "errorRatePercent"
	MetricThroughput      = "throughputPerSec"
)

// EvaluateThresholds compares run metrics against configured bounds and
// returns every violation found. A threshold field <= 0 disables its check.
// Upper-bound checks escalate to critical when the actual exceeds twice the
// expected; the throughput floor escalates when the actual drops below half.
func EvaluateThresholds(m model.ResultMetrics, t model.Thresholds) []model.ThresholdViolation {
	var violations []model.ThresholdViolation

	if t.MaxAvgResponseMs > 0 && m.AvgResponseTimeMs > t.MaxAvgResponseMs {
		violations = append(violations, model.ThresholdViolation{
			Metric:   MetricAvgResponseTime,
			Expected: t.MaxAvgResponseMs,
			Actual:   m.AvgResponseTimeMs,
			Severity: severityAbove(m.AvgResponseTimeMs, t.MaxAvgResponseMs),
		})
	}

	if t.MaxErrorRatePercent > 0 && m.ErrorRatePercent > t.MaxErrorRatePercent {
		violations = append(violations, model.ThresholdViolation{
			Metric:   MetricErrorRate,
			Expected: t.MaxErrorRatePercent,
			Actual:   m.ErrorRatePercent,
			Severity: severityAbove(m.ErrorRatePercent, t.MaxErrorRatePercent),
		})
	}

	if t.MinThroughputPerSec > 0 && m.ThroughputPerSec < t.MinThroughputPerSec {
		severity := model.SeverityWarning
		if m.ThroughputPerSec < t.MinThroughputPerSec*0.5 {
			severity = model.SeverityCritical
		}
		violations = append(violations, model.ThresholdViolation{
			Metric:   MetricThroughput,
			Expected: t.MinThroughputPerSec,
			Actual:   m.ThroughputPerSec,
			Severity: severity,
		})
	}

	return violations
}

func severityAbove(actual, expected float64) model.Severity {
	if actual > expected*2 {
		return model.SeverityCritical
	}
	return model.SeverityWarning
}

// StatusFor classifies a run from its violations: failed on any critical,
// warning on any violation at all, passed otherwise.
func StatusFor(violations []model.ThresholdViolation) model.TestStatus {
	status := model.StatusPassed
	for _, v := range violations {
		if v.Severity == model.SeverityCritical {
			return model.StatusFailed
		}
		status = model.StatusWarning
	}
	return status
}
