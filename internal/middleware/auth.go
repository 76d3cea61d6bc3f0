package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/service"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	ContextUserID      = "userId"
	ContextAccessToken = "accessToken"
)

// AuthMiddleware creates a Gin middleware that verifies the session JWT and
// exposes the user id and platform access token to handlers.
func AuthMiddleware(sessions service.SessionService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer <token>"})
			c.Abort()
			return
		}

		claims, err := sessions.Verify(parts[1])
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
				c.Abort()
				return
			}
			logger.Warn("Rejected invalid session token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			c.Abort()
			return
		}

		if claims.UserID == "" || claims.AccessToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session is missing credentials"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextAccessToken, claims.AccessToken)

		c.Next()
	}
}
