package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the HTTP handlers wired up in main.
type HandlerBundle struct {
	// Availability endpoints
	GetAvailabilityHandler gin.HandlerFunc

	// Booking endpoints
	CreateRecurringBookingHandler gin.HandlerFunc

	// Route endpoints
	OptimizeRouteHandler gin.HandlerFunc

	// Walker endpoints
	ReportLocationHandler gin.HandlerFunc

	// Ops endpoints
	HealthHandler gin.HandlerFunc
}
