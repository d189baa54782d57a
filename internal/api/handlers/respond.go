package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bess-dispatch/internal/api/models"
	"bess-dispatch/internal/model"
)

func respondError(c *gin.Context, status int, code string, err error) {
	detail := models.ErrorDetail{Code: code, Message: err.Error()}
	var ce *model.ConfigError
	if errors.As(err, &ce) {
		detail.Details = map[string]interface{}{
			"param":  ce.Param,
			"reason": ce.Reason,
		}
	}
	c.JSON(status, models.ErrorResponse{Error: detail})
}

// respondRunError maps an error from building or running a simulation.
// Configuration problems are the caller's fault; anything else is ours.
func respondRunError(c *gin.Context, err error) {
	if isConfigError(err) {
		respondError(c, http.StatusBadRequest, models.CodeInvalidConfig, err)
		return
	}
	respondError(c, http.StatusInternalServerError, models.CodeSimulationError, err)
}

func isConfigError(err error) bool {
	var ce *model.ConfigError
	return errors.As(err, &ce)
}
