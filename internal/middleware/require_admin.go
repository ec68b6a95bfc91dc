package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const adminRole = "admin"

// RequireAdmin vérifie que l'utilisateur a le rôle "admin". À placer après JWTAuth.
func RequireAdmin(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role != adminRole {
			logger.Warn("⛔ Accès éditeur refusé",
				zap.String("user_id", c.GetString("user_id")),
				zap.String("role", role),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
			return
		}
		c.Next()
	}
}

// AdminRequired enchaîne JWTAuth et RequireAdmin
func AdminRequired(secret []byte, logger *zap.Logger) []gin.HandlerFunc {
	return []gin.HandlerFunc{JWTAuth(secret, logger), RequireAdmin(logger)}
}
