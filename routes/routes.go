package routes

import (
	"net/http"
	"time"

	"walkly/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWalkerRoutes registers walker-scoped scheduling endpoints.
func RegisterWalkerRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/walkers")
	{
		api.GET("/:walkerId/availability", hb.GetAvailabilityHandler)
		api.POST("/:walkerId/route", hb.OptimizeRouteHandler)
		api.POST("/:walkerId/location", hb.ReportLocationHandler)
	}
}

// RegisterBookingRoutes registers booking creation endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("/recurring", hb.CreateRecurringBookingHandler)
	}
}

// RegisterRoutes wires CORS, all API groups, and the ops endpoints.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterWalkerRoutes(r, hb)
	RegisterBookingRoutes(r, hb)

	r.GET("/healthz", hb.HealthHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}
