package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pouchworks/quote-service/pkg/errors"
	"github.com/pouchworks/quote-service/pkg/logging"
	"github.com/pouchworks/quote-service/pkg/metrics"
)

// DefaultMaxBodyBytes is the request body ceiling (1 MiB)
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit rejects bodies whose declared length exceeds max and caps the
// reader for chunked bodies so DecodeJSON can report PAYLOAD_TOO_LARGE.
func BodyLimit(max int64, logger *slog.Logger) gin.HandlerFunc {
	if max <= 0 {
		max = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			AbortWithAppError(c, logger, errors.ErrPayloadTooLarge(max))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

// Limiter is satisfied by ratelimit.KeyedLimiter
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

// ClientIdentity resolves the rate-limit key: X-Client-ID when supplied,
// otherwise the client IP.
func ClientIdentity(c *gin.Context) string {
	if id := SanitizeString(c.GetHeader(HeaderClientID)); id != "" && len(id) <= 128 {
		return "client:" + id
	}
	return "ip:" + c.ClientIP()
}

// RateLimit rejects callers that exhausted their quota with 429 and a
// Retry-After header, before the request reaches any handler.
func RateLimit(limiter Limiter, m *metrics.Metrics, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientIdentity(c)
		c.Set(ContextKeyClientID, key)
		c.Request = c.Request.WithContext(logging.ContextWithClientID(c.Request.Context(), key))

		allowed, retryAfter := limiter.Allow(key)
		if !allowed {
			m.RecordRateLimited()
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			AbortWithAppError(c, logger, errors.ErrRateLimitExceeded().WithDetail("retryAfterSeconds", seconds))
			return
		}
		c.Next()
	}
}
