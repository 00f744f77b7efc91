// Package rest provides REST API handlers
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/service-perf-validator/loadtest-engine/internal/model"
)

// listTests returns all registered test definitions
func (h *Handler) listTests(c *gin.Context) {
	defs := h.registry.Definitions()
	c.JSON(http.StatusOK, TestList{Tests: defs, Total: len(defs)})
}

// createTest registers a new test definition (or replaces an existing one)
func (h *Handler) createTest(c *gin.Context) {
	var def model.TestDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "BAD_REQUEST",
			Details: err.Error(),
		})
		return
	}

	def.Normalize()
	if err := h.registry.Register(def); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid test definition",
			Code:    "INVALID_DEFINITION",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, def)
}

// getTest returns a specific test definition
func (h *Handler) getTest(c *gin.Context) {
	id := c.Param("id")

	def, err := h.registry.Definition(id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Test not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, TestDetail{
		TestDefinition: def,
		Scheduled:      h.registry.Scheduled(id),
	})
}
