package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hushgram-service/internal/repositories"
	"hushgram-service/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, groupRepo repositories.GroupRepository, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Out-of-band audit for the member_count cache: recompute from live
	// membership rows and report how many groups had drifted.
	router.POST("/debug/reconcile-member-counts", func(c *gin.Context) {
		updated, err := groupRepo.ReconcileMemberCounts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated_groups": updated})
	})
}
