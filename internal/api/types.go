package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forkful/backend/internal/jsonrepair"
	"github.com/forkful/backend/internal/service"
)

// respondError maps service-level errors onto HTTP statuses. Unrepairable
// AI output is a 422 that carries the raw model text so the client can
// surface or retry it.
func respondError(c *gin.Context, err error) {
	var repairErr *jsonrepair.RepairError
	switch {
	case errors.As(err, &repairErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "AI response could not be parsed as a recipe",
			"raw_output": repairErr.Raw,
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAINotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI service is not configured"})
	case errors.Is(err, service.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI service request failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
