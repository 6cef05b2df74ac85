package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger-service/internal/middleware"
	"messenger-service/internal/service"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/uploads"
)

// ConversationHandler exposes the conversation domain over HTTP. Handlers
// stay thin: parse ids and bodies, call the service, map typed failures.
type ConversationHandler struct {
	svc   *service.ConversationService
	audit *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler. The audit emitter may
// be nil.
func NewConversationHandler(svc *service.ConversationService, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{svc: svc, audit: audit}
}

// CreateChat creates or returns the direct conversation with another user.
func (h *ConversationHandler) CreateChat(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req struct {
		ParticipantID uuid.UUID `json:"participantId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.svc.FindOrCreateDirect(c.Request.Context(), userID, req.ParticipantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateGroup creates a named group chat.
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req struct {
		Name      string      `json:"name" binding:"required"`
		MemberIDs []uuid.UUID `json:"memberIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.svc.CreateGroup(c.Request.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ListChats returns the caller's chat list, most recently active first.
func (h *ConversationHandler) ListChats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	views, err := h.svc.ListChats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetMessages returns a conversation's history, optionally filtered by a
// content search query.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	views, err := h.svc.GetMessages(c.Request.Context(), userID, chatID, c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// SendMessage accepts either a JSON body with text or a multipart form with
// text plus file attachments, and broadcasts the stored message.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var (
		text  string
		files []uploads.File
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		if vals := form.Value["text"]; len(vals) > 0 {
			text = vals[0]
		}
		for _, header := range form.File["files"] {
			f, err := header.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable attachment"})
				return
			}
			defer f.Close()
			files = append(files, uploads.File{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Reader:      f,
			})
		}
	} else {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		text = req.Text
	}

	view, err := h.svc.SendMessage(c.Request.Context(), userID, chatID, text, files)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteMessage recalls a message for everyone.
func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	messageID, err := uuid.Parse(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.svc.DeleteMessage(c.Request.Context(), userID, chatID, messageID); err != nil {
		writeError(c, err)
		return
	}
	emitAudit(c, h.audit, "info", "message "+messageID.String()+" recalled in chat "+chatID.String())
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// MarkRead advances the caller's read cursor for the conversation.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), userID, chatID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ToggleReaction flips the caller's emoji reaction on a message.
func (h *ConversationHandler) ToggleReaction(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	messageID, err := uuid.Parse(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.svc.ToggleReaction(c.Request.Context(), userID, chatID, messageID, req.Emoji)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// LeaveGroup removes the caller from a group conversation.
func (h *ConversationHandler) LeaveGroup(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	if err := h.svc.LeaveGroup(c.Request.Context(), userID, chatID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// KickMember removes another member from a group. Admin only.
func (h *ConversationHandler) KickMember(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.svc.KickMember(c.Request.Context(), userID, chatID, targetID); err != nil {
		writeError(c, err)
		return
	}
	emitAudit(c, h.audit, "warn", "user "+targetID.String()+" removed from chat "+chatID.String())
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// AddMembers adds users to a group. Admin only.
func (h *ConversationHandler) AddMembers(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		UserIDs []uuid.UUID `json:"userIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.AddMembers(c.Request.Context(), userID, chatID, req.UserIDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// DissolveGroup notifies members and tears the group down. Admin only.
func (h *ConversationHandler) DissolveGroup(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	if err := h.svc.DissolveGroup(c.Request.Context(), userID, chatID); err != nil {
		writeError(c, err)
		return
	}
	emitAudit(c, h.audit, "warn", "chat "+chatID.String()+" dissolved")
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
