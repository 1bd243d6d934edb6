package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	routeLabelKey   = "route_label"
)

// RequestIDMiddleware keeps an incoming X-Request-ID or generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request id from the context or the request header.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return c.GetHeader(requestIDHeader)
}

// LoggerMiddleware logs every request once it completes.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("route", routeLabel(c)),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logRequest(logger, status, fields)
	}
}

// logRequest picks the level from the response status.
func logRequest(logger *zap.Logger, status int, fields []zap.Field) {
	level := zapcore.InfoLevel
	switch {
	case status >= 500:
		level = zapcore.ErrorLevel
	case status >= 400:
		level = zapcore.WarnLevel
	}
	logger.Log(level, "HTTP request", fields...)
}

// NoCacheMiddleware marks every response as not cacheable; clients revalidate with ETags.
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}

// routeLabel is the low-cardinality route name used in logs and metrics.
func routeLabel(c *gin.Context) string {
	if v, ok := c.Get(routeLabelKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
