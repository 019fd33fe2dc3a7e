package handlers

import (
	"net/http"

	"walkly/utils"

	"github.com/gin-gonic/gin"
)

// Health reports the latest dependency health snapshot.
//
// GET /healthz
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		// Before the first check tick the snapshot is zero; report OK rather
		// than failing readiness during startup.
		if !status.CheckedAt.IsZero() && !status.Mongo {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
