package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bess-dispatch/internal/analysis"
	"bess-dispatch/internal/api/models"
	"bess-dispatch/internal/data"
)

// Profile handles POST /api/v1/profile. Periods without a site are ranked
// together under the empty site name.
func Profile(c *gin.Context) {
	var req models.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, err)
		return
	}

	rankings := analysis.RankByOracleProfit(data.GroupBySite(data.Normalize(req.Series)))
	if req.Limit > 0 && req.Limit < len(rankings) {
		rankings = rankings[:req.Limit]
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Rankings: rankings})
}
