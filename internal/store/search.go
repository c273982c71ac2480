package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"iap/invcheck/internal/model"
)

// SearchFilters 检索条件（全部可选，AND 组合）
type SearchFilters struct {
	Vendor      string  // 供应商名称子串，大小写不敏感
	StartDate   string  // YYYY-MM-DD，含当天
	EndDate     string  // YYYY-MM-DD，含当天
	MinAmount   float64 // 金额下限（含）
	MaxAmount   float64 // 金额上限（含）
	HasMin      bool
	HasMax      bool
	RiskLevel   string // 精确匹配
	AnomalyType string // 精确匹配
	Status      string // 精确匹配
}

// 可用排序字段白名单（键为对外字段名）
var sortColumns = map[string]string{
	"invoice_date": "invoice_date",
	"total_amount": "total_amount",
	"vendor_name":  "vendor_name",
	"risk_level":   "risk_level",
	"risk_score":   "risk_score",
	"status":       "status",
}

// PagedResult 分页检索结果
type PagedResult struct {
	Records    []model.Invoice `json:"records"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
}

// Search 按条件检索发票，支持排序覆盖与 1 起始分页
// 超出范围的页码返回空记录集，total_count / total_pages 保持正确
func (s *InvoiceStore) Search(ctx context.Context, filters SearchFilters, sortBy, sortOrder string, page, perPage int) (*PagedResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	query := s.applyFilters(s.db.WithContext(ctx).Model(&InvoiceRecord{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	query = query.Order(buildOrder(sortBy, sortOrder))

	var rows []InvoiceRecord
	offset := (page - 1) * perPage
	if err := query.Offset(offset).Limit(perPage).Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]model.Invoice, 0, len(rows))
	for i := range rows {
		records = append(records, *s.toDomain(&rows[i]))
	}

	return &PagedResult{
		Records:    records,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	}, nil
}

// applyFilters 组装过滤条件
func (s *InvoiceStore) applyFilters(query *gorm.DB, f SearchFilters) *gorm.DB {
	if f.Vendor != "" {
		query = query.Where("LOWER(vendor_name) LIKE ?", "%"+strings.ToLower(f.Vendor)+"%")
	}
	if f.StartDate != "" {
		query = query.Where("invoice_date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		query = query.Where("invoice_date <= ?", f.EndDate)
	}
	if f.HasMin {
		query = query.Where("total_amount >= ?", f.MinAmount)
	}
	if f.HasMax {
		query = query.Where("total_amount <= ?", f.MaxAmount)
	}
	if f.RiskLevel != "" {
		query = query.Where("risk_level = ?", f.RiskLevel)
	}
	if f.AnomalyType != "" {
		query = query.Where("anomaly_type = ?", f.AnomalyType)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	return query
}

// buildOrder 组装排序子句，未指定或非法字段时使用默认排序
func buildOrder(sortBy, sortOrder string) string {
	column, ok := sortColumns[strings.ToLower(sortBy)]
	if !ok {
		// 默认：日期降序，金额降序
		return "invoice_date DESC, total_amount DESC"
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}
