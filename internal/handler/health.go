package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHealthRoutes wires liveness and readiness probes.
func RegisterHealthRoutes(engine *gin.Engine, ready func() error) {
	engine.GET("/health/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	engine.GET("/health/ready", func(c *gin.Context) {
		if ready != nil {
			if err := ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})
				return
			}
		}
		c.Status(http.StatusOK)
	})
}
