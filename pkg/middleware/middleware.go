package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pouchworks/quote-service/pkg/errors"
)

// Config holds middleware configuration
type Config struct {
	Logger         *slog.Logger
	ServiceName    string
	AllowedOrigins []string
	MaxBodyBytes   int64
	TrustedProxies []string
}

// DefaultConfig returns a default middleware configuration
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		Logger:         logger,
		ServiceName:    serviceName,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:   DefaultMaxBodyBytes,
	}
}

// Setup applies the standard middleware chain to a Gin router. Rate limiting
// is route-scoped and registered by the caller. With no TrustedProxies the
// forwarding headers are ignored and ClientIP is the peer address.
func Setup(router *gin.Engine, config *Config) error {
	if err := router.SetTrustedProxies(config.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	router.Use(Recovery(config.Logger))
	router.Use(RequestID())
	router.Use(ProcessingTime())
	router.Use(CorrelationID())
	router.Use(Logger(config.Logger))
	router.Use(NoCache())
	router.Use(OriginGuard(config.AllowedOrigins, config.Logger))
	router.Use(BodyLimit(config.MaxBodyBytes, config.Logger))
	router.Use(ContentType())
	return nil
}

// NoCache marks every response as uncacheable
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// HealthCheck creates a health check handler
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	}
}

// ReadinessCheck creates a readiness check handler with custom check function
func ReadinessCheck(serviceName string, checkFn func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checkFn(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"service": serviceName,
		})
	}
}

// NoRoute handles 404 errors with the standard envelope
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, newErrorResponse(c,
			errors.NewAppError(errors.CodeRouteNotFound, "The requested resource was not found", http.StatusNotFound)))
	}
}

// NoMethod handles 405 errors with the standard envelope
func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, newErrorResponse(c,
			errors.NewAppError(errors.CodeMethodNotAllowed, "The request method is not supported for this resource", http.StatusMethodNotAllowed)))
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
