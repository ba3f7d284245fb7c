package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hushgram-service/internal/repositories"
)

// SessionMiddleware resolves the X-Session-Id header to a user and stores
// the user id in the request context.
func SessionMiddleware(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("X-Session-Id")
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}

		user, err := users.FindBySession(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown session"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve session"})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
