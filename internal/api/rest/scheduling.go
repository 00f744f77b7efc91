// Package rest provides REST API handlers
package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/service-perf-validator/loadtest-engine/internal/registry"
)

// scheduleTest starts the recurring trigger for a test
func (h *Handler) scheduleTest(c *gin.Context) {
	id := c.Param("id")

	err := h.registry.Schedule(id)
	switch {
	case errors.Is(err, registry.ErrUnknownTest):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Test not found",
			Code:  "NOT_FOUND",
		})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Cannot schedule test",
			Code:    "BAD_SCHEDULE",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ScheduleStatus{TestID: id, Scheduled: true})
}

// unscheduleTest stops the recurring trigger for a test. Unknown ids
// are a no-op so the operation is idempotent.
func (h *Handler) unscheduleTest(c *gin.Context) {
	id := c.Param("id")
	h.registry.Unschedule(id)
	c.JSON(http.StatusOK, ScheduleStatus{TestID: id, Scheduled: false})
}
