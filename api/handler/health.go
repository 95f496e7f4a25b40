package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rituraj200000/googlemapscraper/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
func Health(t *Tracker, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: Version,
		}
		if snap := t.Latest(); snap != nil {
			resp.Running = snap.Kind
		}
		c.JSON(http.StatusOK, resp)
	}
}
