package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware gates the API behind a shared key, matching the access
// password the frontend already prompts for. An unset API_KEY disables the
// check for local development.
func APIKeyMiddleware() gin.HandlerFunc {
	expected := os.Getenv("API_KEY")

	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")

		if key == "" || key != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":    false,
				"error": "invalid API key",
			})
			return
		}

		c.Next()
	}
}
