package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/config"
)

// IdentityProxyMiddleware admits only the OAuth front proxy, which proves
// itself with the shared X-Identity-Secret header. With no secret configured
// the identity callback is disabled.
func IdentityProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.IdentityProxySecret()
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "identity login is not enabled"})
			return
		}
		got := c.Request.Header.Get("X-Identity-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
