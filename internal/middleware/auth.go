package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAuthToken middleware для защиты создания ссылок общим секретом.
// Заголовок Authorization сравнивается с секретом целиком, без схемы Bearer.
// Если секрет не задан в конфигурации, все запросы отклоняются — сервис
// без AUTH_TOKEN работает только на чтение.
func RequireAuthToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader("Authorization")

		if secret == "" || supplied == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Требуется заголовок Authorization",
			})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Невалидный токен авторизации",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
