package invoice

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"iap/invcheck/internal/store"
	"iap/invcheck/pkg/ginx"
)

// Get 获取发票详情（含异常明细与处理日志）
// GET /api/v1/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID := c.Param("id")
	if invoiceID == "" {
		ginx.BadRequest(c, "invoice_id required")
		return
	}

	detail, err := h.queryService.GetDetail(c.Request.Context(), invoiceID)
	if err != nil {
		if errors.Is(err, store.ErrInvoiceNotFound) {
			ginx.NotFound(c, "invoice not found")
			return
		}
		log.Printf("[ERROR] get invoice failed: %v", err)
		ginx.InternalError(c, "get invoice failed")
		return
	}

	ginx.Success(c, detail)
}
