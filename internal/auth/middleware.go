package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware извлекает userID из JWT и кладет его в context запроса.
// Без токена или с невалидным токеном запрос идет дальше анонимным.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenStr == "" {
			c.Next()
			return
		}

		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "JWT secret not set"})
			return
		}

		userID, err := ParseToken(secret, tokenStr)
		if err != nil {
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// RequireUser пропускает только запросы, прошедшие Middleware с валидным токеном
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetUserIDFromContext(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		c.Next()
	}
}
