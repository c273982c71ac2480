package model

import "time"

// 提取失败时的占位值（由上游抽取服务填充，不是真实数据）
const (
	SentinelUnknownVendor = "UNKNOWN_VENDOR"
	SentinelNotFound      = "NOT_FOUND"
	SentinelUnknown       = "UNKNOWN"
)

// 风险等级常量
const (
	RiskLevelLow    = "Low"
	RiskLevelMedium = "Medium"
	RiskLevelHigh   = "High"
)

// 发票状态常量
const (
	StatusPending  = "Pending"
	StatusReviewed = "Reviewed"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// DateLayout 发票日期格式（上游抽取统一为该格式）
const DateLayout = "2006-01-02"

// Invoice 发票记录（上游抽取服务输出的标准化结构）
type Invoice struct {
	InvoiceID       string  `json:"invoice_id"`
	VendorName      string  `json:"vendor_name"`
	InvoiceDate     string  `json:"invoice_date"` // YYYY-MM-DD，解析失败按缺失处理
	DueDate         string  `json:"due_date,omitempty"`
	TotalAmount     float64 `json:"total_amount"`
	TaxAmount       float64 `json:"tax_amount,omitempty"`
	ItemDescription string  `json:"item_description,omitempty"`
	PaymentTerms    string  `json:"payment_terms,omitempty"`
	Department      string  `json:"department,omitempty"`
	SourceType      string  `json:"source_type,omitempty"` // Digital / Scanned

	// 评分派生字段
	Status      string `json:"status,omitempty"`
	RiskLevel   string `json:"risk_level,omitempty"`
	AnomalyType string `json:"anomaly_type,omitempty"`
}

// HasVendor 判断供应商信息是否有效（非占位值）
func (inv *Invoice) HasVendor() bool {
	return inv.VendorName != "" &&
		inv.VendorName != SentinelUnknownVendor &&
		inv.VendorName != SentinelNotFound
}

// HasInvoiceID 判断发票号是否有效（非占位值）
func (inv *Invoice) HasInvoiceID() bool {
	return inv.InvoiceID != "" &&
		inv.InvoiceID != SentinelNotFound &&
		inv.InvoiceID != SentinelUnknown
}

// ParseDate 解析发票日期
// 返回 ok=false 表示日期缺失或无法解析，调用方跳过依赖日期的比较
func (inv *Invoice) ParseDate() (time.Time, bool) {
	t, err := time.Parse(DateLayout, inv.InvoiceDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Month 返回发票所属月份（YYYY-MM），日期无效时返回空串
func (inv *Invoice) Month() string {
	if _, ok := inv.ParseDate(); !ok {
		return ""
	}
	return inv.InvoiceDate[:7]
}
