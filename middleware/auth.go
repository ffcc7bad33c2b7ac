package middleware

import (
	"net/http"
	"strings"

	"github.com/CUknot/tasksphere_backend/utils"
	"github.com/gin-gonic/gin"
)

// BearerAuth rejects requests without a valid identity-provider token and
// exposes the token subject as "userID".
func BearerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header required"})
			return
		}

		claims, err := utils.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		c.Set("userID", claims.Subject)
		c.Next()
	}
}
