package handlers

import (
	"errors"
	"net/http"

	"walkly/models"
	"walkly/services/booking"
	"walkly/utils"

	"github.com/gin-gonic/gin"
)

// CreateRecurringBooking creates a recurring series of bookings. The call is
// idempotent on the Idempotency-Key header (or the body's idempotencyKey);
// replays return the stored result unchanged.
//
// POST /api/bookings/recurring
func CreateRecurringBooking(svc booking.SeriesService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RecurringBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
			return
		}
		if key := c.GetHeader("Idempotency-Key"); key != "" {
			req.IdempotencyKey = key
		}

		result, err := svc.Create(c.Request.Context(), req)
		if err != nil {
			switch {
			case booking.IsValidationError(err):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, booking.ErrSeriesInFlightTimeout):
				c.JSON(http.StatusConflict, gin.H{"error": "an identical request is still being processed, retry shortly"})
			default:
				var txErr *booking.StorageTransactionError
				if errors.As(err, &txErr) {
					utils.JSONError(c, http.StatusServiceUnavailable, "booking storage is unavailable, no bookings were created", txErr.Error())
					return
				}
				utils.JSONError(c, http.StatusInternalServerError, "failed to create recurring booking", err.Error())
			}
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}
