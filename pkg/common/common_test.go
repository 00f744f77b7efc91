// Package common provides the shared HTTP server shell and metrics.
package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestServerStandardEndpoints(t *testing.T) {
	s := NewServer("endpoint-test", 0)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		s.Router().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200 for %s, got %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	s.Router().ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("Expected health body to report healthy, got %s", w.Body.String())
	}
}

func TestReadinessGauge(t *testing.T) {
	m := NewMetrics("readiness-test")

	m.SetReady()
	if v := testutil.ToFloat64(m.ComponentReady); v != 1 {
		t.Errorf("Expected ready gauge 1, got %f", v)
	}

	m.SetNotReady()
	if v := testutil.ToFloat64(m.ComponentReady); v != 0 {
		t.Errorf("Expected ready gauge 0, got %f", v)
	}
}
