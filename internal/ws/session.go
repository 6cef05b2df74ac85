package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messenger-service/internal/middleware"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/presence"
)

// SessionHandler owns the lifecycle of one websocket per request: token
// validation, upgrade, presence registration, the liveness read loop, and the
// symmetric teardown. A user may hold several sessions at once; online/offline
// broadcasts fire only on the registry's real transitions.
type SessionHandler struct {
	registry  *presence.Registry
	router    *Router
	jwtSecret string
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(registry *presence.Registry, router *Router, jwtSecret string) *SessionHandler {
	return &SessionHandler{registry: registry, router: router, jwtSecret: jwtSecret}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the session.
func (h *SessionHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := middleware.ParseUserID(h.jwtSecret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	conn := NewConn(wsConn)
	conn.Start()

	info := ConnInfo{
		ConnID:      conn.ID,
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	cameOnline := h.registry.Register(userID, conn)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, "ws_connect", info, "")

	if cameOnline {
		h.router.ToAllExcept(userID, models.UserStatusEvent{
			Type:     models.EventTypeUserStatusChange,
			UserID:   userID,
			IsOnline: true,
		})
	}

	go h.readLoop(ctx, userID, conn, wsConn, info)
}

// readLoop drains inbound frames for liveness only; clients talk to the
// service over HTTP. Any read error ends the session.
func (h *SessionHandler) readLoop(ctx context.Context, userID uuid.UUID, conn *Conn, wsConn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		conn.Close(websocket.CloseNormalClosure, "")
		wentOffline := h.registry.Unregister(userID, conn)

		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, "ws_disconnect", info, closeReason)

		if wentOffline {
			h.router.ToAllExcept(userID, models.UserStatusEvent{
				Type:     models.EventTypeUserStatusChange,
				UserID:   userID,
				IsOnline: false,
			})
		}
	}()

	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(ctx, "ws_error", info, closeReason)
			}
			return
		}
	}
}

func (h *SessionHandler) publishLifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	_ = observability.PublishEvent(ctx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID.String(),
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
