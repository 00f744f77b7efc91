// Package common provides the shared HTTP server shell and metrics.
package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus metrics.
type Metrics struct {
	ActiveWorkers   prometheus.Gauge
	ScheduledTests  prometheus.Gauge
	RunsStarted     prometheus.Counter
	RunsPassed      prometheus.Counter
	RunsWarning     prometheus.Counter
	RunsFailed      prometheus.Counter
	RequestsTotal   prometheus.Counter
	RequestFailures prometheus.Counter
	RequestDuration prometheus.Histogram
	ComponentReady  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with the given component name.
func NewMetrics(component string) *Metrics {
	labels := prometheus.Labels{"component": component}

	return &Metrics{
		ActiveWorkers: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "loadtest_active_workers",
			Help:        "Number of load workers currently running",
			ConstLabels: labels,
		}),
		ScheduledTests: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "loadtest_scheduled_tests",
			Help:        "Number of tests with an active recurring trigger",
			ConstLabels: labels,
		}),
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "loadtest_runs_started_total",
			Help:        "Total number of runs started",
			ConstLabels: labels,
		}),
		RunsPassed: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "loadtest_runs_passed_total",
			Help:        "Total number of runs that passed all thresholds",
			ConstLabels: labels,
		}),
		RunsWarning: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "loadtest_runs_warning_total",
			Help:        "Total number of runs finishing with warnings",
			ConstLabels: labels,
		}),
		RunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "loadtest_runs_failed_total",
			Help:        "Total number of failed runs",
			ConstLabels: labels,
		}),
		RequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "loadtest_requests_total",
			Help:        "Total number of load requests issued",
			ConstLabels: labels,
		}),
		RequestFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "loadtest_request_failures_total",
			Help:        "Total number of failed load requests",
			ConstLabels: labels,
		}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "loadtest_request_duration_seconds",
			Help:        "Observed latency of load requests in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		ComponentReady: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "loadtest_component_ready",
			Help:        "Whether the component is ready (1) or not (0)",
			ConstLabels: labels,
		}),
	}
}

// SetReady marks the component as ready.
func (m *Metrics) SetReady() {
	m.ComponentReady.Set(1)
}

// SetNotReady marks the component as not ready.
func (m *Metrics) SetNotReady() {
	m.ComponentReady.Set(0)
}
