package middleware

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ovpnsync/internal/server/api/response"
)

// Middleware represents middleware manager
type Middleware struct {
	logger *zap.Logger
}

// New creates a new middleware manager
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger,
	}
}

// RequestID adds request ID to context
func (m *Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger logs request details at debug level
func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		m.logger.Debug("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("error", c.Errors.ByType(gin.ErrorTypePrivate).String()))
	}
}

// Recovery recovers from panics
func (m *Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				buf := make([]byte, 2048)
				n := runtime.Stack(buf, false)

				var errMsg string
				switch e := err.(type) {
				case error:
					errMsg = e.Error()
				case string:
					errMsg = e
				default:
					errMsg = fmt.Sprintf("%v", e)
				}

				m.logger.Error("panic recovered",
					zap.String("error", errMsg),
					zap.String("stack", string(buf[:n])))

				response.New(c, m.logger).InternalError(errors.New("internal server error"))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NoCache adds no-cache headers
func (m *Middleware) NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}

// Secure adds security headers
func (m *Middleware) Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}
