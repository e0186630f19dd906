package logging

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/tenant"
	"go.uber.org/zap"
)

const loggerContextKey = "__logger"

// RequestLogger logs one line per request and stores a request-scoped logger on the context.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Set(loggerContextKey, logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		))

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("route", c.FullPath()),
			zap.String("host", c.Request.Host),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		// 子域名请求在路由前被改写，这里记录浏览器实际请求的地址
		if origin, ok := tenant.FromContext(c.Request.Context()); ok {
			fields = append(fields,
				zap.String("subdomain", origin.Subdomain),
				zap.String("original_path", origin.Path),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Recovery turns panics into 500 responses and logs them.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

// FromContext returns the request logger set by RequestLogger, or a no-op logger.
func FromContext(c *gin.Context) *zap.Logger {
	if value, ok := c.Get(loggerContextKey); ok {
		if logger, ok := value.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.NewNop()
}
