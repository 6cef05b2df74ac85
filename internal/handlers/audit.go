package handlers

import (
	"github.com/gin-gonic/gin"

	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/telemetry"
)

// emitAudit records a moderation or destructive action on the audit stream.
// A nil emitter is a no-op, which keeps tests free of AMQP wiring.
func emitAudit(c *gin.Context, emitter *telemetry.AuditEmitter, level, text string) {
	var userID *string
	if id, ok := middleware.UserID(c); ok {
		s := id.String()
		userID = &s
	}
	emitter.Emit(c.Request.Context(), level, text, observability.RequestIDFromRequest(c.Request), userID)
}
