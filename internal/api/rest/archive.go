// Package rest provides REST API handlers
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listArchive returns the archived result documents for a test
func (h *Handler) listArchive(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if h.archiver == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Archive is not configured",
			Code:  "ARCHIVE_DISABLED",
		})
		return
	}

	if _, err := h.registry.Definition(id); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Test not found",
			Code:  "NOT_FOUND",
		})
		return
	}

	paths, err := h.archiver.List(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to list archive",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, ArchiveList{TestID: id, Paths: paths, Total: len(paths)})
}
