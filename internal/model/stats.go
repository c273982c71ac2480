package model

// VendorStat 按供应商聚合
type VendorStat struct {
	VendorName   string  `json:"vendor_name"`
	InvoiceCount int64   `json:"invoice_count"`
	TotalAmount  float64 `json:"total_amount"`
}

// LevelStat 按风险等级聚合
type LevelStat struct {
	RiskLevel string `json:"risk_level"`
	Count     int64  `json:"count"`
}

// AnomalyTypeStat 按主异常分类聚合
type AnomalyTypeStat struct {
	AnomalyType string `json:"anomaly_type"`
	Count       int64  `json:"count"`
}

// MonthlyStat 按月聚合（YYYY-MM）
type MonthlyStat struct {
	Month        string  `json:"month"`
	InvoiceCount int64   `json:"invoice_count"`
	TotalAmount  float64 `json:"total_amount"`
}

// StatisticsBundle 统计汇总（查询层对外输出）
type StatisticsBundle struct {
	TotalInvoices int64             `json:"total_invoices"`
	TotalAmount   float64           `json:"total_amount"`
	AvgAmount     float64           `json:"avg_amount"`
	HighRiskCount int64             `json:"high_risk_count"`
	ByVendor      []VendorStat      `json:"by_vendor"`
	ByRiskLevel   []LevelStat       `json:"by_risk_level"`
	ByAnomalyType []AnomalyTypeStat `json:"by_anomaly_type"`
	MonthlyTrends []MonthlyStat     `json:"monthly_trends"`
}
