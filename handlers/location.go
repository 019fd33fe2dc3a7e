package handlers

import (
	"net/http"
	"time"

	"walkly/models"
	"walkly/services/location"
	"walkly/utils"

	"github.com/gin-gonic/gin"
)

// ReportLocation stores a walker's live GPS report. Reports age out; a stale
// report is treated by readers as if no report exists.
//
// POST /api/walkers/:walkerId/location
func ReportLocation(store location.LiveStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		walkerID := c.Param("walkerId")
		if walkerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "walkerId is required"})
			return
		}

		var req models.ReportLocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}

		loc := models.WalkerLiveLocation{
			WalkerID:  walkerID,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Accuracy:  req.Accuracy,
			OnDuty:    req.OnDuty,
			UpdatedAt: time.Now(),
		}
		if err := store.Report(c.Request.Context(), loc); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to store live location", err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "updatedAt": loc.UpdatedAt})
	}
}
