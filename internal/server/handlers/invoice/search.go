package invoice

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"iap/invcheck/internal/store"
	"iap/invcheck/pkg/ginx"
)

// Search 发票检索接口
// GET /api/v1/invoices?vendor=&start_date=&end_date=&min_amount=&max_amount=
//
//	&risk_level=&anomaly_type=&status=&sort_by=&sort_order=&page=&per_page=
func (h *InvoiceHandler) Search(c *gin.Context) {
	filters := store.SearchFilters{
		Vendor:      c.Query("vendor"),
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		RiskLevel:   c.Query("risk_level"),
		AnomalyType: c.Query("anomaly_type"),
		Status:      c.Query("status"),
	}

	if v := c.Query("min_amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			ginx.BadRequest(c, "min_amount must be a number")
			return
		}
		filters.MinAmount = amount
		filters.HasMin = true
	}
	if v := c.Query("max_amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			ginx.BadRequest(c, "max_amount must be a number")
			return
		}
		filters.MaxAmount = amount
		filters.HasMax = true
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	result, err := h.queryService.Search(c.Request.Context(), filters,
		c.Query("sort_by"), c.Query("sort_order"), page, perPage)
	if err != nil {
		log.Printf("[ERROR] search invoices failed: %v", err)
		ginx.InternalError(c, "search failed")
		return
	}

	ginx.Success(c, result)
}
