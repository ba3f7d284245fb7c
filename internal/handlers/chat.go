package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hushgram-service/internal/models"
	"hushgram-service/internal/repositories"
	"hushgram-service/internal/ws"
)

// ChatHandler manages private messaging and the ephemeral per-session state
// (active chat marker, typing indicators).
type ChatHandler struct {
	userRepo    repositories.UserRepository
	messageRepo repositories.MessageRepository
	stateRepo   repositories.SessionStateRepository
	hub         *ws.Hub
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(userRepo repositories.UserRepository, messageRepo repositories.MessageRepository, stateRepo repositories.SessionStateRepository, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		stateRepo:   stateRepo,
		hub:         hub,
	}
}

// SendMessage stores a private message and broadcasts it to the
// conversation room.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		RecipientID int    `json:"recipient_id" binding:"required"`
		Content     string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RecipientID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	if _, err := h.userRepo.FindByID(c.Request.Context(), req.RecipientID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "recipient not found"})
		return
	}

	msg, err := h.messageRepo.CreatePrivateMessage(c.Request.Context(), userID, req.RecipientID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastMessage(msg.ChatKey(), msg)
	c.JSON(http.StatusCreated, msg)
}

// GetConversation returns both directions of the conversation with the peer
// user, in insertion order, with sender usernames attached where the sender
// still exists. A sender deleted by cleanup comes back with an empty
// username and clients render a placeholder.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")

	msgs, err := h.messageRepo.ListConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	resp, err := h.attachSenderNames(c, msgs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

type messageResponse struct {
	models.Message
	SenderUsername string `json:"sender_username,omitempty"`
}

func (h *ChatHandler) attachSenderNames(c *gin.Context, msgs []models.Message) ([]messageResponse, error) {
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
			return nil, err
		}
		for _, u := range users {
			usernameByID[u.ID] = u.Username
		}
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, SenderUsername: usernameByID[m.SenderID]})
	}
	return resp, nil
}

// MarkSeen flips the seen flag on a message addressed to the caller.
func (h *ChatHandler) MarkSeen(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	userID := c.GetInt("userID")

	if err := h.messageRepo.MarkSeen(c.Request.Context(), messageID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not mark seen"})
		return
	}

	c.Status(http.StatusNoContent)
}

// SetActiveChat records which conversation the caller has open.
func (h *ChatHandler) SetActiveChat(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		ChatKey string `json:"chat_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	marker, err := h.stateRepo.SetActiveChat(c.Request.Context(), userID, req.ChatKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not set active chat"})
		return
	}

	c.JSON(http.StatusOK, marker)
}

// SetTyping upserts the caller's typing indicator and broadcasts the change
// to the room.
func (h *ChatHandler) SetTyping(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		ChatKey  string `json:"chat_key" binding:"required"`
		IsTyping *bool  `json:"is_typing" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	indicator, err := h.stateRepo.SetTyping(c.Request.Context(), userID, req.ChatKey, *req.IsTyping)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update typing state"})
		return
	}

	h.hub.BroadcastTyping(req.ChatKey, models.TypingUpdate{
		UserID:   userID,
		ChatKey:  req.ChatKey,
		IsTyping: *req.IsTyping,
	})
	c.JSON(http.StatusOK, indicator)
}
