// Package rest provides REST API handlers
package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/service-perf-validator/loadtest-engine/internal/archive"
	"github.com/service-perf-validator/loadtest-engine/internal/registry"
)

// Handler binds the engine's API routes to the registry. The archiver
// is optional; archive routes report it as unavailable when nil.
type Handler struct {
	registry *registry.Registry
	archiver archive.Archiver
}

// NewHandler creates a REST handler backed by the given registry.
func NewHandler(reg *registry.Registry, arch archive.Archiver) *Handler {
	return &Handler{registry: reg, archiver: arch}
}

// RegisterRoutes sets up all REST API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		tests := v1.Group("/tests")
		{
			tests.GET("", h.listTests)
			tests.POST("", h.createTest)
			tests.GET("/:id", h.getTest)

			tests.POST("/:id/run", h.runTest)
			tests.GET("/:id/results", h.getResults)

			tests.POST("/:id/schedule", h.scheduleTest)
			tests.DELETE("/:id/schedule", h.unscheduleTest)

			tests.GET("/:id/archive", h.listArchive)
		}
	}
}
