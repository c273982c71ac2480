package stats

import (
	"log"

	"github.com/gin-gonic/gin"

	"iap/invcheck/internal/service"
	"iap/invcheck/pkg/ginx"
)

// StatsHandler 统计 HTTP 处理器
type StatsHandler struct {
	queryService *service.QueryService
}

// NewStatsHandler 创建统计处理器实例
func NewStatsHandler(queryService *service.QueryService) *StatsHandler {
	return &StatsHandler{
		queryService: queryService,
	}
}

// Get 聚合统计接口
// GET /api/v1/stats
func (h *StatsHandler) Get(c *gin.Context) {
	bundle, err := h.queryService.Stats(c.Request.Context())
	if err != nil {
		log.Printf("[ERROR] get stats failed: %v", err)
		ginx.InternalError(c, "get stats failed")
		return
	}

	ginx.Success(c, bundle)
}
