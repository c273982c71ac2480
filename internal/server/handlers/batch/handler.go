package batch

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"iap/invcheck/internal/model"
	"iap/invcheck/internal/service"
	"iap/invcheck/pkg/ginx"
)

// maxBatchSize 单批次发票数量上限
const maxBatchSize = 1000

// BatchHandler 批次 HTTP 处理器
type BatchHandler struct {
	submitService *service.SubmitService
}

// NewBatchHandler 创建批次处理器实例
func NewBatchHandler(submitService *service.SubmitService) *BatchHandler {
	return &BatchHandler{
		submitService: submitService,
	}
}

// CreateBatchRequest 批次提交请求
type CreateBatchRequest struct {
	Invoices []model.Invoice `json:"invoices" binding:"required,min=1"`
}

// Create 提交批次评分接口（异步受理）
// POST /api/v1/batches
func (h *BatchHandler) Create(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	if len(req.Invoices) > maxBatchSize {
		ginx.BadRequest(c, fmt.Sprintf("batch too large, max %d invoices", maxBatchSize))
		return
	}

	batchID, err := h.submitService.SubmitBatch(c.Request.Context(), req.Invoices)
	if err != nil {
		log.Printf("[ERROR] submit batch failed: %v", err)
		ginx.InternalError(c, "submit batch failed")
		return
	}

	pollURL := "/api/v1/invoices"
	ginx.Accepted(c, batchID, pollURL)
}
