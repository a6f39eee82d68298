package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/config"
)

const userIDKey = "user_id"

// AuthMiddleware resolves the bearer token to a user id. With no tokens
// configured every request runs as the "dev" user, which keeps local
// setups working without a config file.
func AuthMiddleware(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(cfg.Auth.Tokens) == 0 {
			c.Set(userIDKey, "dev")
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userID, ok := cfg.Auth.Tokens[token]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUser returns the authenticated user id set by AuthMiddleware.
func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
