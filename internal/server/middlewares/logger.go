package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"iap/invcheck/pkg/logger"
)

// Logger 访问日志中间件
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infof(c.Request.Context(), "[HTTP] %s %s status=%d duration=%v",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(startTime))
	}
}
