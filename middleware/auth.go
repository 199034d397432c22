package middleware

import (
	"net/http"
	"strings"

	"vpndrop/files-api/security"

	"github.com/gin-gonic/gin"
)

// NewAdminAuth gates the admin endpoints behind the session token
// issued at login. The token travels as a bearer credential and must
// match the currently active session exactly
func NewAdminAuth(sessions *security.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"error":     "Missing admin token",
				"requestID": requestID,
			})
			return
		}

		if !sessions.Validate(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"error":     "Invalid or replaced admin token",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
