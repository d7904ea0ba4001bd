package middleware

import (
	"net/http"
	"strings"

	"main/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the owner and device identity of every request.
// Two modes: a signed session token (Authorization: Bearer), or explicit
// X-Owner-ID / X-Device-ID headers when the server runs with
// AUTH_MODE=header (self-hosted deployments behind their own auth).
func AuthMiddleware(headerMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if headerMode {
			ownerID := c.GetHeader("X-Owner-ID")
			deviceID := c.GetHeader("X-Device-ID")
			if ownerID == "" || deviceID == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing owner or device headers"})
				c.Abort()
				return
			}
			c.Set("ownerID", ownerID)
			c.Set("deviceID", deviceID)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid token"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		ownerID, deviceID, err := utils.ParseSessionToken(tokenString)
		if err != nil {
			TrackError("auth")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("ownerID", ownerID)
		c.Set("deviceID", deviceID)
		c.Next()
	}
}
