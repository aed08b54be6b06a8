package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pengzhou/bz-studypal-api/internal/db"
	"github.com/pengzhou/bz-studypal-api/internal/model"
)

const healthPingTimeout = 2 * time.Second

// Health godoc
// @Summary Liveness probe with a bounded DB ping
// @Tags health
// @Produce json
// @Success 200 {object} model.HealthResponse
// @Failure 503 {object} model.HealthResponse
// @Router /health [get]
func Health(store *db.Postgres) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := model.HealthResponse{Status: "ok", Database: "up"}
		if err := store.PingWithTimeout(c.Request.Context(), healthPingTimeout); err != nil {
			resp.Status = "degraded"
			resp.Database = "down"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Root confirms the API is reachable.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "BZ StudyPal API is running",
	})
}
