package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger-service/internal/uploads"
)

// UploadHandler serves stored attachment files.
type UploadHandler struct {
	store uploads.Store
}

// NewUploadHandler builds an UploadHandler.
func NewUploadHandler(store uploads.Store) *UploadHandler {
	return &UploadHandler{store: store}
}

// Serve streams an attachment from its conversation-scoped directory.
func (h *UploadHandler) Serve(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	path, err := h.store.Resolve(chatID, c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(path)
}
