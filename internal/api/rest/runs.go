// Package rest provides REST API handlers
package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/service-perf-validator/loadtest-engine/internal/registry"
)

// runTest executes one run synchronously and returns its result
func (h *Handler) runTest(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	result, err := h.registry.RunNow(ctx, id)
	switch {
	case errors.Is(err, registry.ErrUnknownTest):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Test not found",
			Code:  "NOT_FOUND",
		})
		return
	case errors.Is(err, registry.ErrRunInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "A run for this test is already in progress",
			Code:  "RUN_IN_PROGRESS",
		})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to run test",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// getResults returns the most recent results for a test, newest first
func (h *Handler) getResults(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "limit must be a non-negative integer",
				Code:  "BAD_REQUEST",
			})
			return
		}
		limit = parsed
	}

	if _, err := h.registry.Definition(id); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Test not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	results, err := h.registry.History(ctx, id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to read history",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, ResultList{Results: results, Total: len(results)})
}
