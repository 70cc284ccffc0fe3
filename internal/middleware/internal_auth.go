package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finboard/finboard/internal/pkg/response"
)

const InternalSecretHeader = "X-Internal-Secret"

// InternalAuth guards operator endpoints (backfill, cache warm) with a shared
// secret header. An empty configured secret disables the endpoints entirely.
func InternalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(InternalSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
