package handlers

import (
	"errors"
	"net/http"
	"time"

	schedulerRepo "walkly/database/repository/scheduler"
	"walkly/models"
	"walkly/services/route"
	"walkly/utils"

	"github.com/gin-gonic/gin"
)

// OptimizeRoute suggests a visiting order for a walker's stops on a day.
// When the request omits the walker's current location, the walker's home
// base is used as the departure point.
//
// POST /api/walkers/:walkerId/route?date=2025-03-10
func OptimizeRoute(svc route.RouteService, repo schedulerRepo.SchedulerRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		walkerID := c.Param("walkerId")
		if walkerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "walkerId is required"})
			return
		}

		date, err := time.ParseInLocation(dateLayout, c.Query("date"), time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}

		var req models.OptimizeRouteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}

		var current models.Location
		if req.CurrentLocation != nil {
			current = *req.CurrentLocation
		} else {
			walker, err := repo.GetWalker(c.Request.Context(), walkerID)
			if err != nil {
				utils.JSONError(c, http.StatusInternalServerError, "failed to load walker", err.Error())
				return
			}
			if walker == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "walker not found"})
				return
			}
			current = walker.HomeBase
		}

		plan, err := svc.Optimize(c.Request.Context(), walkerID, date, req.Mode, current)
		if err != nil {
			if errors.Is(err, route.ErrUnsupportedMode) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported route mode", "details": req.Mode})
				return
			}
			utils.JSONError(c, http.StatusInternalServerError, "failed to optimize route", err.Error())
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}
