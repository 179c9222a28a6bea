package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pouchworks/quote-service/pkg/errors"
)

// OriginGuard applies CORS for allow-listed origins and rejects any request
// whose Origin header is not on the list with 403 FORBIDDEN_ORIGIN. Requests
// without an Origin header are server-to-server and pass through. A "*" entry
// allows every origin.
func OriginGuard(allowed []string, logger *slog.Logger) gin.HandlerFunc {
	allowAll := false
	allowSet := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		if o != "" {
			allowSet[strings.ToLower(o)] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !allowAll && !allowSet[strings.ToLower(strings.TrimRight(origin, "/"))] {
			AbortWithAppError(c, logger, errors.ErrForbiddenOrigin(origin))
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID, X-Correlation-ID, X-Client-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Correlation-ID, X-Processing-Time, Retry-After")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
