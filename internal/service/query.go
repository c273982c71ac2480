package service

import (
	"context"
	"encoding/json"
	"fmt"

	"iap/invcheck/internal/model"
	"iap/invcheck/internal/store"
	"iap/invcheck/pkg/logger"
)

// 允许的评审状态流转目标
var allowedStatuses = map[string]bool{
	model.StatusPending:  true,
	model.StatusReviewed: true,
	model.StatusApproved: true,
	model.StatusRejected: true,
}

// InvoiceDetail 发票详情（含评分明细与处理日志）
type InvoiceDetail struct {
	Invoice   *model.Invoice              `json:"invoice"`
	RiskScore int                         `json:"risk_score"`
	Flags     []string                    `json:"flags"`
	Anomalies []model.Anomaly             `json:"anomalies"`
	Log       []store.ProcessingLogRecord `json:"log"`
}

// QueryService 发票查询服务（apiserver 侧）
type QueryService struct {
	store  *store.InvoiceStore
	logger logger.Logger
}

// NewQueryService 创建查询服务实例
func NewQueryService(s *store.InvoiceStore, log logger.Logger) *QueryService {
	return &QueryService{store: s, logger: log}
}

// Search 按条件检索发票
func (s *QueryService) Search(ctx context.Context, filters store.SearchFilters, sortBy, sortOrder string, page, perPage int) (*store.PagedResult, error) {
	return s.store.Search(ctx, filters, sortBy, sortOrder, page, perPage)
}

// GetDetail 查询发票详情，聚合异常明细与处理日志
func (s *QueryService) GetDetail(ctx context.Context, invoiceID string) (*InvoiceDetail, error) {
	record, err := s.store.GetRecord(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	anomalies, err := s.store.ListAnomalies(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	logRows, err := s.store.ListLog(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	var flags []string
	if len(record.Flags) > 0 {
		if err := json.Unmarshal(record.Flags, &flags); err != nil {
			s.logger.Warnf(ctx, "[QueryService] decode flags failed for %s: %v", invoiceID, err)
		}
	}

	return &InvoiceDetail{
		Invoice: &model.Invoice{
			InvoiceID:       record.InvoiceID,
			VendorName:      record.VendorName,
			InvoiceDate:     record.InvoiceDate,
			DueDate:         record.DueDate,
			TotalAmount:     record.TotalAmount,
			TaxAmount:       record.TaxAmount,
			ItemDescription: record.ItemDescription,
			PaymentTerms:    record.PaymentTerms,
			Department:      record.Department,
			SourceType:      record.SourceType,
			Status:          record.Status,
			RiskLevel:       record.RiskLevel,
			AnomalyType:     record.AnomalyType,
		},
		RiskScore: record.RiskScore,
		Flags:     flags,
		Anomalies: anomalies,
		Log:       logRows,
	}, nil
}

// UpdateStatus 更新发票评审状态
func (s *QueryService) UpdateStatus(ctx context.Context, invoiceID, status, notes string) error {
	if !allowedStatuses[status] {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.store.UpdateStatus(ctx, invoiceID, status, notes)
}

// Stats 聚合统计
func (s *QueryService) Stats(ctx context.Context) (*model.StatisticsBundle, error) {
	return s.store.GetStats(ctx)
}
