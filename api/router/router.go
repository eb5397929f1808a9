package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sshcollectorpro/sysvers/api/handler"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

// SetupRouter 设置路由
func SetupRouter(mode string, detectHandler *handler.DetectHandler) *gin.Engine {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":   "sysvers",
			"status": "running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", detectHandler.Health)
		v1.GET("/families", detectHandler.Families)
		v1.POST("/detect", detectHandler.Detect)
		v1.POST("/batch", detectHandler.Batch)

		devices := v1.Group("/devices")
		{
			devices.GET("", detectHandler.ListDevices)
			devices.GET("/:name/history", detectHandler.History)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handler.ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "route not found: " + c.Request.URL.Path,
		})
	})

	return r
}

// RequestIDMiddleware 请求ID中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// LoggingMiddleware 日志中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		if c.Writer.Status() >= 400 {
			entry.Warn("HTTP Request")
			return
		}
		entry.Info("HTTP Request")
	}
}
