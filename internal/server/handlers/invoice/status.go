package invoice

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"iap/invcheck/internal/store"
	"iap/invcheck/pkg/ginx"
)

// UpdateStatusRequest 状态更新请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Pending Reviewed Approved Rejected"`
	Notes  string `json:"notes"`
}

// UpdateStatus 更新发票评审状态
// PUT /api/v1/invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	invoiceID := c.Param("id")
	if invoiceID == "" {
		ginx.BadRequest(c, "invoice_id required")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	err := h.queryService.UpdateStatus(c.Request.Context(), invoiceID, req.Status, req.Notes)
	if err != nil {
		if errors.Is(err, store.ErrInvoiceNotFound) {
			ginx.NotFound(c, "invoice not found")
			return
		}
		log.Printf("[ERROR] update status failed: %v", err)
		ginx.InternalError(c, "update status failed")
		return
	}

	ginx.Success(c, gin.H{
		"invoice_id": invoiceID,
		"status":     req.Status,
	})
}
