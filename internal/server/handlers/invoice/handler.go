package invoice

import "iap/invcheck/internal/service"

// InvoiceHandler 发票 HTTP 处理器
type InvoiceHandler struct {
	queryService *service.QueryService
}

// NewInvoiceHandler 创建发票处理器实例
func NewInvoiceHandler(queryService *service.QueryService) *InvoiceHandler {
	return &InvoiceHandler{
		queryService: queryService,
	}
}
