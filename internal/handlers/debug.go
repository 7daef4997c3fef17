package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tutoring-service/internal/telemetry"
)

// FeedStats reports live feed subscriptions.
type FeedStats interface {
	Active() int
}

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, feed FeedStats, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), auditRecord(c, "audit.test", ""))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/feed", func(c *gin.Context) {
		if feed == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feed not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"active_subscriptions": feed.Active()})
	})
}
