package security

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

const (
	SessionHeader = "X-Session-ID"
	sessionKey    = "session"
)

// SessionMiddleware resolves the X-Session-ID header into an active session.
func SessionMiddleware(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}

		rec, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrSessionInvalid) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Session expired or invalid"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Failed to validate session"})
			return
		}

		c.Set(sessionKey, rec)
		c.Next()
	}
}

// Authorize ensures the session holds one of the allowed roles.
func Authorize(allowed ...roles.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		if !rec.Role.OneOf(allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Forbidden: insufficient permissions"})
			return
		}
		c.Next()
	}
}

func CurrentSession(c *gin.Context) (*models.SessionRecord, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	rec, ok := value.(*models.SessionRecord)
	return rec, ok
}
