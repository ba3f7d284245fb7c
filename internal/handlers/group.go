package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hushgram-service/internal/models"
	"hushgram-service/internal/repositories"
	"hushgram-service/internal/telemetry"
	"hushgram-service/internal/ws"
)

// GroupHandler manages group membership and group messaging endpoints.
type GroupHandler struct {
	groupRepo   repositories.GroupRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groupRepo repositories.GroupRepository, messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		hub:         hub,
		audit:       audit,
	}
}

// CreateGroup handles POST /groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupRepo.CreateGroup(c.Request.Context(), req.Name)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, gin.H{"group_id": group.ID})
}

// JoinGroup adds the caller to the group and bumps its member count.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if _, err := h.groupRepo.GetGroup(c.Request.Context(), groupID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "group not found"})
		return
	}

	if err := h.groupRepo.Join(c.Request.Context(), groupID, userID); err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join group"})
		return
	}

	h.emitAudit(c, "INFO", "Group joined")
	c.Status(http.StatusNoContent)
}

// LeaveGroup removes the caller's membership; the count never goes below
// zero.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.groupRepo.Leave(c.Request.Context(), groupID, userID); err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave group"})
		return
	}

	h.emitAudit(c, "INFO", "Group left")
	c.Status(http.StatusNoContent)
}

// ListMembers returns the group and its membership rows.
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.groupRepo.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "group not found"})
		return
	}

	members, err := h.groupRepo.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group, "members": members})
}

// GetGroupMessages returns messages in the group, members only.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	msgs, err := h.messageRepo.ListGroupMessages(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	senderIDs := make([]int, 0, len(msgs))
	seen := map[int]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	usernameByID := map[int]string{}
	if len(senderIDs) > 0 {
		users, err := h.userRepo.ListByIDs(c.Request.Context(), senderIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
			return
		}
		for _, u := range users {
			usernameByID[u.ID] = u.Username
		}
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, SenderUsername: usernameByID[m.SenderID]})
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// PostGroupMessage persists and broadcasts a group message.
func (h *GroupHandler) PostGroupMessage(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.CreateGroupMessage(c.Request.Context(), userID, groupID, req.Content)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastMessage(models.GroupKey(groupID), msg)
	h.emitAudit(c, "INFO", "Group message sent")
	c.JSON(http.StatusCreated, msg)
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func parseGroupID(c *gin.Context) (int, bool) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return 0, false
	}
	return groupID, true
}
