package handlers

import (
	"net/http"
	"strconv"
	"time"

	"walkly/models"
	"walkly/services/booking"
	"walkly/utils"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// GetAvailability returns the feasible slot list for a walker on a given day.
//
// GET /api/walkers/:walkerId/availability?date=2025-03-10&serviceId=...&durationMin=60
// The service location arrives as locationId and/or lat+lng query params.
func GetAvailability(svc booking.SlotService) gin.HandlerFunc {
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

		durationMin, err := strconv.Atoi(c.Query("durationMin"))
		if err != nil || durationMin <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "durationMin must be a positive integer"})
			return
		}

		loc := models.Location{ID: c.Query("locationId"), Address: c.Query("address")}
		if latStr, lngStr := c.Query("lat"), c.Query("lng"); latStr != "" || lngStr != "" {
			lat, latErr := strconv.ParseFloat(latStr, 64)
			lng, lngErr := strconv.ParseFloat(lngStr, 64)
			if latErr != nil || lngErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must both be valid numbers"})
				return
			}
			loc.Latitude = lat
			loc.Longitude = lng
		}
		if loc.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a service location is required (locationId or lat+lng)"})
			return
		}

		result, err := svc.Slots(c.Request.Context(), booking.SlotQuery{
			WalkerID:        walkerID,
			Date:            date,
			ServiceLocation: loc,
			ServiceDuration: time.Duration(durationMin) * time.Minute,
			Now:             time.Now(),
		})
		if err != nil {
			if booking.IsValidationError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			utils.JSONError(c, http.StatusInternalServerError, "failed to compute availability", err.Error())
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
