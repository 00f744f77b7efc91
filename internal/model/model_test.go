// Package model defines the shared data model for the load-testing engine
package model

import (
	"strings"
	"testing"
)

func validDefinition() TestDefinition {
	return TestDefinition{
		ID:       "checkout-load",
		Name:     "Checkout load test",
		TestType: TestTypeLoad,
		Config: TestConfig{
			DurationSeconds: 60,
			Concurrency:     10,
			RampUpSeconds:   5,
			Targets:         []string{"http://localhost:8080"},
			Thresholds: Thresholds{
				MaxAvgResponseMs:    500,
				MaxErrorRatePercent: 5,
				MinThroughputPerSec: 10,
			},
		},
	}
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TestDefinition)
		wantErr string
	}{
		{
			name:   "valid definition",
			mutate: func(d *TestDefinition) {},
		},
		{
			name:    "missing id",
			mutate:  func(d *TestDefinition) { d.ID = "" },
			wantErr: "id is required",
		},
		{
			name:    "unknown test type",
			mutate:  func(d *TestDefinition) { d.TestType = "chaos" },
			wantErr: "unknown test type",
		},
		{
			name:    "zero concurrency",
			mutate:  func(d *TestDefinition) { d.Config.Concurrency = 0 },
			wantErr: "concurrency must be positive",
		},
		{
			name:    "negative duration",
			mutate:  func(d *TestDefinition) { d.Config.DurationSeconds = -1 },
			wantErr: "duration must be positive",
		},
		{
			name:    "negative ramp-up",
			mutate:  func(d *TestDefinition) { d.Config.RampUpSeconds = -5 },
			wantErr: "ramp-up must not be negative",
		},
		{
			name: "no scenarios and no targets",
			mutate: func(d *TestDefinition) {
				d.Config.Targets = nil
				d.Scenarios = nil
			},
			wantErr: "at least one scenario or target",
		},
		{
			name: "scenario with zero weight",
			mutate: func(d *TestDefinition) {
				d.Scenarios = []Scenario{{
					Name:     "browse",
					Weight:   0,
					Requests: []ScenarioRequest{{Method: "GET", Path: "/"}},
				}}
			},
			wantErr: "weight must be positive",
		},
		{
			name: "scenario without requests",
			mutate: func(d *TestDefinition) {
				d.Scenarios = []Scenario{{Name: "browse", Weight: 1}}
			},
			wantErr: "has no requests",
		},
		{
			name: "relative path without targets",
			mutate: func(d *TestDefinition) {
				d.Config.Targets = nil
				d.Scenarios = []Scenario{{
					Name:     "browse",
					Weight:   1,
					Requests: []ScenarioRequest{{Method: "GET", Path: "/products"}},
				}}
			},
			wantErr: "no targets are configured",
		},
		{
			name: "absolute path without targets",
			mutate: func(d *TestDefinition) {
				d.Config.Targets = nil
				d.Scenarios = []Scenario{{
					Name:     "browse",
					Weight:   1,
					Requests: []ScenarioRequest{{Method: "GET", Path: "https://example.com/products"}},
				}}
			},
		},
		{
			name: "enabled schedule without expression",
			mutate: func(d *TestDefinition) {
				d.Schedule = &Schedule{Enabled: true}
			},
			wantErr: "needs an expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)
			err := def.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefinitionNormalize(t *testing.T) {
	def := TestDefinition{ID: "smoke"}
	def.Normalize()

	if def.TestType != TestTypeLoad {
		t.Errorf("Expected default test type %q, got %q", TestTypeLoad, def.TestType)
	}
	if def.Name != "smoke" {
		t.Errorf("Expected name to default to id, got %q", def.Name)
	}
}

func TestDeriveScenarios(t *testing.T) {
	targets := []string{"http://a.example.com", "http://b.example.com"}
	scenarios := DeriveScenarios(targets)

	if len(scenarios) != 2 {
		t.Fatalf("Expected 2 derived scenarios, got %d", len(scenarios))
	}
	for i, sc := range scenarios {
		if sc.Weight != 1 {
			t.Errorf("Expected weight 1 for scenario %d, got %v", i, sc.Weight)
		}
		if len(sc.Requests) != 1 {
			t.Fatalf("Expected 1 request in scenario %d, got %d", i, len(sc.Requests))
		}
		if sc.Requests[0].Method != "GET" {
			t.Errorf("Expected GET request, got %s", sc.Requests[0].Method)
		}
		if sc.Requests[0].Path != targets[i] {
			t.Errorf("Expected path %q, got %q", targets[i], sc.Requests[0].Path)
		}
		if err := sc.Validate(); err != nil {
			t.Errorf("Expected derived scenario to validate, got %v", err)
		}
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"http://example.com", true},
		{"https://example.com/api", true},
		{"/api/users", false},
		{"api/users", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsAbsoluteURL(tt.path); got != tt.want {
			t.Errorf("IsAbsoluteURL(%q): expected %v, got %v", tt.path, tt.want, got)
		}
	}
}
