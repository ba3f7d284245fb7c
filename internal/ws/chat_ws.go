package ws

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"hushgram-service/internal/models"
	"hushgram-service/internal/repositories"
)

// ChatWebSocketHandler serves live delivery for private conversations.
type ChatWebSocketHandler struct {
	hub   *Hub
	users repositories.UserRepository
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, users repositories.UserRepository) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, users: users}
}

// Handle joins the caller to the room of their conversation with the peer
// user named in the path.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	peerID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ctx, span := otel.Tracer("hushgram/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	user, err := resolveSession(ctx, h.users, c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown session"})
		return
	}

	if _, err := h.users.FindByID(ctx, peerID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "peer not found"})
		return
	}

	serveRoom(c, h.hub, models.DMKey(user.ID, peerID), user.ID, span.SpanContext().TraceID().String())
}

// resolveSession accepts the session id from the header or, for browser
// websocket clients that cannot set headers, from the query string.
func resolveSession(ctx context.Context, users repositories.UserRepository, c *gin.Context) (models.User, error) {
	sessionID := c.GetHeader("X-Session-Id")
	if sessionID == "" {
		sessionID = c.Query("session")
	}
	if sessionID == "" {
		return models.User{}, repositories.ErrUserNotFound
	}
	return users.FindBySession(ctx, sessionID)
}
