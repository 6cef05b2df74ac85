package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/service"
)

// writeError maps a typed domain failure onto its HTTP status. Anything
// without a kind is an internal error and is not leaked to the client.
func writeError(c *gin.Context, err error) {
	kind, ok := service.ErrorKind(err)
	if !ok {
		log.Printf("internal error: method=%s path=%s err=%v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case service.KindInvalidArgument:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindForbidden, service.KindBlocked:
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
