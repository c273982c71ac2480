package store

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvoiceRecord 发票实体（invoices 表）
// invoice_id 唯一，重复保存按覆盖处理；记录只更新不物理删除
type InvoiceRecord struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement"`
	InvoiceID string `gorm:"column:invoice_id;type:varchar(64);not null;uniqueIndex:uk_invoice_id"`

	VendorName      string  `gorm:"column:vendor_name;type:varchar(128);not null;index:idx_vendor_name"`
	InvoiceDate     string  `gorm:"column:invoice_date;type:varchar(10);not null;index:idx_invoice_date"`
	InvoiceMonth    string  `gorm:"column:invoice_month;type:varchar(7);index:idx_invoice_month"` // YYYY-MM，落库时维护，用于跨方言月度聚合
	DueDate         string  `gorm:"column:due_date;type:varchar(10)"`
	TotalAmount     float64 `gorm:"column:total_amount;not null"`
	TaxAmount       float64 `gorm:"column:tax_amount"`
	ItemDescription string  `gorm:"column:item_description;type:text"`
	PaymentTerms    string  `gorm:"column:payment_terms;type:varchar(64)"`
	Department      string  `gorm:"column:department;type:varchar(64)"`
	SourceType      string  `gorm:"column:source_type;type:varchar(16)"`

	// 评分派生字段
	Status      string         `gorm:"column:status;type:varchar(16);not null;default:'Pending';index:idx_status"`
	RiskLevel   string         `gorm:"column:risk_level;type:varchar(8);index:idx_risk_level"`
	AnomalyType string         `gorm:"column:anomaly_type;type:varchar(32);index:idx_anomaly_type"`
	RiskScore   int            `gorm:"column:risk_score"`
	Flags       datatypes.JSON `gorm:"column:flags;type:json"` // 全部命中标记的快照
	ProcessedAt *time.Time     `gorm:"column:processed_at"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (InvoiceRecord) TableName() string {
	return "invoices"
}

// AnomalyRecord 异常明细实体（anomalies 表，append-only）
type AnomalyRecord struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	InvoiceID    string    `gorm:"column:invoice_id;type:varchar(64);not null;index:idx_anomaly_invoice"`
	AnomalyKind  string    `gorm:"column:anomaly_kind;type:varchar(48);not null;index:idx_anomaly_kind"`
	Description  string    `gorm:"column:description;type:text"`
	Severity     string    `gorm:"column:severity;type:varchar(8)"`
	AmountImpact float64   `gorm:"column:amount_impact"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (AnomalyRecord) TableName() string {
	return "anomalies"
}

// 审计日志动作常量
const (
	ActionSave         = "SAVE"
	ActionAnomalySave  = "ANOMALY_SAVE"
	ActionStatusUpdate = "STATUS_UPDATE"
)

// ProcessingLogRecord 处理日志实体（processing_log 表，append-only）
type ProcessingLogRecord struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	InvoiceID   string    `gorm:"column:invoice_id;type:varchar(64);not null;index:idx_log_invoice"`
	Action      string    `gorm:"column:action;type:varchar(32);not null"`
	Details     string    `gorm:"column:details;type:text"`
	PerformedBy string    `gorm:"column:performed_by;type:varchar(64);not null;default:'system'"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (ProcessingLogRecord) TableName() string {
	return "processing_log"
}

// AutoMigrate 建表与索引（测试及开发环境使用）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&InvoiceRecord{}, &AnomalyRecord{}, &ProcessingLogRecord{})
}
