package api

import (
	"errors"
	"net/http"
	"time"

	"chatrelay/logger"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const RequestIdHeader = "X-Request-Id"

const maxRequestIdLength = 128

// RequestIdMiddleware echoes the caller's X-Request-Id or generates one, and
// attaches a request-scoped zerolog logger to the request context.
func RequestIdMiddleware(providerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(RequestIdHeader)
		if requestId == "" || len(requestId) > maxRequestIdLength {
			requestId = "req_" + ksuid.New().String()
		}
		c.Header(RequestIdHeader, requestId)

		l := logger.Get().With().
			Str("requestId", requestId).
			Str("provider", providerName).
			Str("path", c.Request.URL.Path).
			Logger()

		ctx := c.Request.Context()
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("request.id", requestId))
		c.Request = c.Request.WithContext(l.WithContext(ctx))

		c.Next()
	}
}

// RequestLoggerMiddleware logs one line per completed request.
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Ctx(c.Request.Context()).Info().
			Str("method", c.Request.Method).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}

// RecoveryMiddleware turns handler panics into 500 responses. Aborted
// streams are re-panicked so net/http drops the connection.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger.Ctx(c.Request.Context()).Error().
				Interface("panic", rec).
				Msg("handler panicked")
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}
