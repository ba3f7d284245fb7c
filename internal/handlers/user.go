package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hushgram-service/internal/repositories"
	"hushgram-service/internal/tasks"
	"hushgram-service/internal/telemetry"
)

// UserHandler manages the user directory and presence endpoints.
type UserHandler struct {
	userRepo repositories.UserRepository
	queue    tasks.Queue
	audit    *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, queue tasks.Queue, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{userRepo: userRepo, queue: queue, audit: audit}
}

// CreateOrResume registers a display name for the caller's session, or
// resumes the user already bound to it.
func (h *UserHandler) CreateOrResume(c *gin.Context) {
	sessionID := c.GetHeader("X-Session-Id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session"})
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userRepo.CreateOrResume(c.Request.Context(), req.Username, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
			return
		}
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	h.emitAudit(c, "INFO", "User created or resumed")
	c.JSON(http.StatusCreated, gin.H{"user_id": user.ID})
}

// GetCurrentUser returns the user bound to the caller's session, or null.
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	sessionID := c.GetHeader("X-Session-Id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing session"})
		return
	}

	user, err := h.userRepo.FindBySession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListOnlineUsers returns users inside the online window.
func (h *UserHandler) ListOnlineUsers(c *gin.Context) {
	users, err := h.userRepo.ListOnline(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SetOnlineStatus is the heartbeat: it updates the flag and refreshes
// last_seen.
func (h *UserHandler) SetOnlineStatus(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		IsOnline *bool `json:"is_online" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.userRepo.SetOnlineStatus(c.Request.Context(), userID, *req.IsOnline); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not update status"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Logout enqueues the cleanup workflow and returns immediately; the caller
// never waits on the cascading delete.
func (h *UserHandler) Logout(c *gin.Context) {
	userID := c.GetInt("userID")

	if err := h.queue.Enqueue(c.Request.Context(), tasks.NewCleanupTask(userID)); err != nil {
		h.emitAudit(c, "ERROR", "failed to enqueue cleanup")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not schedule cleanup"})
		return
	}

	h.emitAudit(c, "INFO", "Logout, cleanup scheduled")
	c.Status(http.StatusAccepted)
}

func (h *UserHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
