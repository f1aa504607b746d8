package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"sentiment-dashboard/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with an ID (reusing a client supplied one) and
// stores a request scoped logger in the request context.
func RequestID(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequest(c.Request.Context(), log, id))
		c.Next()
	}
}

// AccessLog logs method, path, status, elapsed and bytes written. Requests
// slower than slow are logged at warn level; 0 disables that.
func AccessLog(log zerolog.Logger, slow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		l := logger.C(c.Request.Context(), log)
		evt := l.Info()
		if slow > 0 && elapsed >= slow {
			evt = l.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		evt.Int("status", c.Writer.Status()).
			Dur("elapsed", elapsed).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("bytes", c.Writer.Size()).
			Msg("request done")
	}
}

// Recovery turns panics into a 500 JSON reply and logs them.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.C(c.Request.Context(), log).Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

// RateLimit applies a single token bucket shared by every caller.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
