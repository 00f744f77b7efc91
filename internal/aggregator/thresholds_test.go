// Package aggregator turns raw run metrics into finished test results
package aggregator

import (
	"testing"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

func TestEvaluateThresholdsClassification(t *testing.T) {
	thresholds := model.Thresholds{
		MaxAvgResponseMs:    1000,
		MaxErrorRatePercent: 5,
		MinThroughputPerSec: 50,
	}

	tests := []struct {
		name          string
		metrics       model.ResultMetrics
		wantStatus    model.TestStatus
		wantCritical  int
		wantWarning   int
		wantViolation string
	}{
		{
			name: "all within bounds",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 500,
				ErrorRatePercent:  1,
				ThroughputPerSec:  100,
			},
			wantStatus: model.StatusPassed,
		},
		{
			name: "avg exceeds twice the bound",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 2200,
				ErrorRatePercent:  3,
				ThroughputPerSec:  60,
			},
			wantStatus:    model.StatusFailed,
			wantCritical:  1,
			wantViolation: MetricAvgResponseTime,
		},
		{
			name: "avg above bound but within twice",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 1500,
				ErrorRatePercent:  1,
				ThroughputPerSec:  100,
			},
			wantStatus:    model.StatusWarning,
			wantWarning:   1,
			wantViolation: MetricAvgResponseTime,
		},
		{
			name: "avg at exactly twice the bound stays warning",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 2000,
				ErrorRatePercent:  1,
				ThroughputPerSec:  100,
			},
			wantStatus:    model.StatusWarning,
			wantWarning:   1,
			wantViolation: MetricAvgResponseTime,
		},
		{
			name: "error rate above twice the bound",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 100,
				ErrorRatePercent:  11,
				ThroughputPerSec:  100,
			},
			wantStatus:    model.StatusFailed,
			wantCritical:  1,
			wantViolation: MetricErrorRate,
		},
		{
			name: "throughput below half the floor",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 100,
				ErrorRatePercent:  1,
				ThroughputPerSec:  20,
			},
			wantStatus:    model.StatusFailed,
			wantCritical:  1,
			wantViolation: MetricThroughput,
		},
		{
			name: "throughput at exactly half the floor stays warning",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 100,
				ErrorRatePercent:  1,
				ThroughputPerSec:  25,
			},
			wantStatus:    model.StatusWarning,
			wantWarning:   1,
			wantViolation: MetricThroughput,
		},
		{
			name: "multiple warnings stay warning",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 1200,
				ErrorRatePercent:  7,
				ThroughputPerSec:  40,
			},
			wantStatus:  model.StatusWarning,
			wantWarning: 3,
		},
		{
			name: "one critical among warnings fails",
			metrics: model.ResultMetrics{
				AvgResponseTimeMs: 1200,
				ErrorRatePercent:  11,
				ThroughputPerSec:  40,
			},
			wantStatus:   model.StatusFailed,
			wantCritical: 1,
			wantWarning:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := EvaluateThresholds(tt.metrics, thresholds)

			var critical, warning int
			for _, v := range violations {
				switch v.Severity {
				case model.SeverityCritical:
					critical++
				case model.SeverityWarning:
					warning++
				}
			}

			if critical != tt.wantCritical {
				t.Errorf("Expected %d critical violations, got %d: %+v", tt.wantCritical, critical, violations)
			}
			if warning != tt.wantWarning {
				t.Errorf("Expected %d warning violations, got %d: %+v", tt.wantWarning, warning, violations)
			}
			if got := StatusFor(violations); got != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, got)
			}
			if tt.wantViolation != "" {
				found := false
				for _, v := range violations {
					if v.Metric == tt.wantViolation {
						found = true
					}
				}
				if !found {
					t.Errorf("Expected a violation on %s, got %+v", tt.wantViolation, violations)
				}
			}
		})
	}
}

func TestEvaluateThresholdsDisabledChecks(t *testing.T) {
	// Zero-valued thresholds disable their checks entirely
	metrics := model.ResultMetrics{
		AvgResponseTimeMs: 10000,
		ErrorRatePercent:  99,
		ThroughputPerSec:  0.001,
	}

	violations := EvaluateThresholds(metrics, model.Thresholds{})
	if len(violations) != 0 {
		t.Errorf("Expected no violations with unset thresholds, got %+v", violations)
	}
	if got := StatusFor(violations); got != model.StatusPassed {
		t.Errorf("Expected status passed, got %s", got)
	}
}

func TestEvaluateThresholdsRecordsExpectedAndActual(t *testing.T) {
	metrics := model.ResultMetrics{AvgResponseTimeMs: 2200}
	thresholds := model.Thresholds{MaxAvgResponseMs: 1000}

	violations := EvaluateThresholds(metrics, thresholds)
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.Expected != 1000 {
		t.Errorf("Expected bound 1000, got %v", v.Expected)
	}
	if v.Actual != 2200 {
		t.Errorf("Expected actual 2200, got %v", v.Actual)
	}
	if v.Severity != model.SeverityCritical {
		t.Errorf("Expected critical severity, got %s", v.Severity)
	}
}
