// Package rest provides REST API handlers
package rest

import (
	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// TestList is the response for listing test definitions
type TestList struct {
	Tests []model.TestDefinition `json:"tests"`
	Total int                    `json:"total"`
}

// TestDetail is one definition together with its live trigger state
type TestDetail struct {
	model.TestDefinition
	Scheduled bool `json:"scheduled"`
}

// ResultList is the response for a test's run history, newest first
type ResultList struct {
	Results []model.TestResult `json:"results"`
	Total   int                `json:"total"`
}

// ScheduleStatus reports the trigger state for one test
type ScheduleStatus struct {
	TestID    string `json:"testId"`
	Scheduled bool   `json:"scheduled"`
}

// ArchiveList is the response for listing archived result documents
type ArchiveList struct {
	TestID string   `json:"testId"`
	Paths  []string `json:"paths"`
	Total  int      `json:"total"`
}
