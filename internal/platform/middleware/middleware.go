// Package middleware provides the gin handlers shared by every HTTP entry point.
package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apierrors "github.com/Apurer/go-gin-bmi-server/internal/shared/errors"
)

// HeaderRequestID carries the correlation id in both directions.
const HeaderRequestID = "X-Request-Id"

const contextKeyRequestID = "requestID"

// RequestID propagates a valid client UUID or mints a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set(contextKeyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned by RequestID, if any.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}

// Recovery converts panics into a 500 problem response.
func Recovery(logger *slog.Logger, metrics *Metrics) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if metrics != nil {
					metrics.panicRecoveries.Inc()
				}
				var errMsg string
				switch v := recovered.(type) {
				case error:
					errMsg = v.Error()
				default:
					errMsg = fmt.Sprintf("%v", v)
				}
				logger.Error("panic recovered",
					slog.String("error", errMsg),
					slog.String("requestID", RequestIDFrom(c)),
					slog.String("path", c.Request.URL.Path),
					slog.String("method", c.Request.Method),
				)
				apierrors.DefaultResponder.InternalError(c, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RateLimit rejects requests beyond the limiter budget with 429 and Retry-After.
// A nil limiter disables the check.
func RateLimit(limiter *rate.Limiter, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if !limiter.Allow() {
			if metrics != nil {
				metrics.rateLimitRejects.Inc()
			}
			c.Header("Retry-After", "1")
			apierrors.Respond(c, apierrors.ErrTooManyRequests.
				WithDetail("rate limit exceeded").
				WithExtension("limit", float64(limiter.Limit())).
				WithExtension("burst", limiter.Burst()))
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(int(limiter.Limit())))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, limiter.Tokens()))))
		c.Next()
	}
}

// Logging writes one line per request. Requests that recorded a server-side problem log at error level.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		attrs := []slog.Attr{
			slog.String("requestID", RequestIDFrom(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		}
		level := slog.LevelDebug
		if last := c.Errors.Last(); last != nil {
			attrs = append(attrs, slog.String("error", last.Err.Error()))
			if apierrors.HTTPStatusFromError(last.Err) >= http.StatusInternalServerError {
				level = slog.LevelError
			}
		}
		logger.LogAttrs(c.Request.Context(), level, "request completed", attrs...)
	}
}
