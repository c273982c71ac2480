package routers

import (
	"github.com/gin-gonic/gin"

	"iap/invcheck/internal/server/handlers/batch"
	"iap/invcheck/internal/server/handlers/invoice"
	"iap/invcheck/internal/server/handlers/stats"
	"iap/invcheck/internal/server/middlewares"
	"iap/invcheck/pkg/logger"
)

// SetupRoutes 配置所有路由，使用 Route Group 分类
func SetupRoutes(
	invoiceHandler *invoice.InvoiceHandler,
	statsHandler *stats.StatsHandler,
	batchHandler *batch.BatchHandler,
	log logger.Logger,
) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.ErrorHandler())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "invcheck",
			"message": "Service is running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		invoices := v1.Group("/invoices")
		{
			invoices.GET("", invoiceHandler.Search)
			invoices.GET("/:id", invoiceHandler.Get)
			invoices.PUT("/:id/status", invoiceHandler.UpdateStatus)
		}

		v1.GET("/stats", statsHandler.Get)

		batches := v1.Group("/batches")
		{
			batches.POST("", batchHandler.Create)
		}
	}

	return r
}
