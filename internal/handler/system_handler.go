package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/cache"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type statsReporter interface {
	Stats() cache.Stats
}

// HealthCheck 提供负载均衡与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	body := gin.H{
		"status":   "ok",
		"database": "up",
	}
	// A failing page cache only degrades the status.
	if checker, ok := a.cache.(healthChecker); ok {
		if err := checker.HealthCheck(c.Request.Context()); err != nil {
			body["status"] = "degraded"
			body["cache"] = "down"
		} else {
			body["cache"] = "up"
		}
	}
	if reporter, ok := a.cache.(statsReporter); ok {
		body["cacheStats"] = reporter.Stats()
	}

	c.JSON(http.StatusOK, body)
}
