package model

// 严重程度常量
const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// 主异常分类常量（按优先级取首个命中的分类）
const (
	CategoryDuplicate     = "Duplicate"
	CategoryExtremeAmount = "Extreme Amount"
	CategoryStatistical   = "Statistical Anomaly"
	CategoryVendorPattern = "Vendor Pattern Anomaly"
	CategoryDataQuality   = "Data Quality Issue"
	CategoryNone          = "No Anomaly"
)

// Anomaly 单条异常明细（评分时生成，落库后不再修改）
type Anomaly struct {
	Kind         string  `json:"kind"`
	Description  string  `json:"description"`
	Severity     string  `json:"severity"`
	AmountImpact float64 `json:"amount_impact"` // 预估风险金额
}

// Verdict 单张发票的评分结论
type Verdict struct {
	InvoiceID   string    `json:"invoice_id"`
	Flags       []string  `json:"flags"`
	RiskScore   int       `json:"risk_score"`
	RiskLevel   string    `json:"risk_level"`
	AnomalyType string    `json:"anomaly_type"`
	Anomalies   []Anomaly `json:"anomalies"`
}
