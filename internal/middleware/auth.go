package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// RequireUser middleware гейтвейной идентификации: доверенный заголовок
// X-User-ID проставляется вышестоящим шлюзом и кладётся в контекст.
// Запрос без заголовка отклоняется с 401
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized",
			})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID извлекает идентификатор пользователя из контекста запроса
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	return v.(string), true
}

// RequireAdminKey middleware для аутентификации админских эндпоинтов по
// API ключу. Ключ принимается через заголовок X-API-Key, query параметр
// api_key или Authorization: Bearer
func RequireAdminKey(validKeys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")

		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if apiKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				apiKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Требуется API ключ. Передайте его через заголовок X-API-Key, query параметр api_key или Authorization: Bearer",
			})
			c.Abort()
			return
		}

		// Валидация ключа с использованием constant-time comparison
		valid := false
		var keyName string
		for validKey, name := range validKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				valid = true
				keyName = name
				break
			}
		}

		if !valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Невалидный API ключ",
			})
			c.Abort()
			return
		}

		c.Set("api_key_name", keyName)
		c.Next()
	}
}
