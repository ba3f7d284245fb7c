package ws

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"hushgram-service/internal/models"
	"hushgram-service/internal/repositories"
)

// GroupWebSocketHandler serves live delivery for group rooms.
type GroupWebSocketHandler struct {
	hub    *Hub
	groups repositories.GroupRepository
	users  repositories.UserRepository
}

// NewGroupWebSocketHandler constructs a GroupWebSocketHandler.
func NewGroupWebSocketHandler(hub *Hub, groups repositories.GroupRepository, users repositories.UserRepository) *GroupWebSocketHandler {
	return &GroupWebSocketHandler{hub: hub, groups: groups, users: users}
}

// Handle joins the caller to a group room after a membership check.
func (h *GroupWebSocketHandler) Handle(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
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

	member, err := h.groups.IsMember(ctx, groupID, user.ID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for group"})
		return
	}

	serveRoom(c, h.hub, models.GroupKey(groupID), user.ID, span.SpanContext().TraceID().String())
}
