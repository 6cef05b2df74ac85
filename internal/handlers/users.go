package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger-service/internal/middleware"
	"messenger-service/internal/models"
	"messenger-service/internal/moderation"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

const userSearchLimit = 20

// UserHandler serves user lookups and block management.
type UserHandler struct {
	users repositories.UserRepository
	guard *moderation.Guard
	audit *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler. The audit emitter may be nil.
func NewUserHandler(users repositories.UserRepository, guard *moderation.Guard, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{users: users, guard: guard, audit: audit}
}

// Search finds users by username or email substring, excluding the caller.
// An empty query returns suggestions.
func (h *UserHandler) Search(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	users, err := h.users.Search(c.Request.Context(), userID, c.Query("query"), userSearchLimit)
	if err != nil {
		writeError(c, err)
		return
	}

	results := make([]models.UserPublic, 0, len(users))
	for _, u := range users {
		results = append(results, u.Public())
	}
	c.JSON(http.StatusOK, results)
}

// Block records a block against another user.
func (h *UserHandler) Block(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.guard.BlockUser(c.Request.Context(), userID, targetID); err != nil {
		writeError(c, err)
		return
	}
	emitAudit(c, h.audit, "info", "user "+targetID.String()+" blocked")
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Unblock removes a block.
func (h *UserHandler) Unblock(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.guard.UnblockUser(c.Request.Context(), userID, targetID); err != nil {
		writeError(c, err)
		return
	}
	emitAudit(c, h.audit, "info", "user "+targetID.String()+" unblocked")
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
