package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"iap/invcheck/internal/model"
	"iap/invcheck/pkg/errorutil"
)

// ErrInvoiceNotFound 发票不存在
var ErrInvoiceNotFound = errors.New("invoice not found")

// upsertColumns 冲突时按覆盖更新的列
var upsertColumns = []string{
	"vendor_name", "invoice_date", "invoice_month", "due_date",
	"total_amount", "tax_amount", "item_description", "payment_terms",
	"department", "source_type", "status", "risk_level", "anomaly_type",
	"risk_score", "flags", "processed_at", "updated_at",
}

// InvoiceStore 发票存储（invoices / anomalies / processing_log 三表）
type InvoiceStore struct {
	db *gorm.DB
}

// NewInvoiceStore 创建发票存储实例
func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// SaveScored 持久化一张已评分发票（单票原子写）
// 同一事务内：发票 upsert + 异常明细追加 + 审计日志，任一步失败整体回滚，
// 不会留下无主异常行
func (s *InvoiceStore) SaveScored(ctx context.Context, inv *model.Invoice, verdict *model.Verdict) error {
	record, err := s.toRecord(inv, verdict)
	if err != nil {
		return errorutil.NonRetriableWrap(err, "encode invoice failed")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "invoice_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).Create(record).Error; err != nil {
			return fmt.Errorf("upsert invoice failed: %w", err)
		}

		for _, a := range verdict.Anomalies {
			row := &AnomalyRecord{
				InvoiceID:    inv.InvoiceID,
				AnomalyKind:  a.Kind,
				Description:  a.Description,
				Severity:     a.Severity,
				AmountImpact: a.AmountImpact,
				CreatedAt:    time.Now(),
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("append anomaly failed: %w", err)
			}
		}

		logRow := &ProcessingLogRecord{
			InvoiceID:   inv.InvoiceID,
			Action:      ActionSave,
			Details:     fmt.Sprintf("Invoice saved/updated with risk level: %s", verdict.RiskLevel),
			PerformedBy: "system",
			CreatedAt:   time.Now(),
		}
		return tx.Create(logRow).Error
	})
	if err != nil {
		// 存储写入失败可由调用方重试，核心不自动重试
		return errorutil.RetriableWrap(err, "save scored invoice failed")
	}

	return nil
}

// SaveInvoice 持久化发票（无评分结论，upsert + 日志）
func (s *InvoiceStore) SaveInvoice(ctx context.Context, inv *model.Invoice) error {
	record, err := s.toRecord(inv, nil)
	if err != nil {
		return errorutil.NonRetriableWrap(err, "encode invoice failed")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "invoice_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).Create(record).Error; err != nil {
			return fmt.Errorf("upsert invoice failed: %w", err)
		}

		logRow := &ProcessingLogRecord{
			InvoiceID:   inv.InvoiceID,
			Action:      ActionSave,
			Details:     "Invoice saved without scoring",
			PerformedBy: "system",
			CreatedAt:   time.Now(),
		}
		return tx.Create(logRow).Error
	})
	if err != nil {
		return errorutil.RetriableWrap(err, "save invoice failed")
	}

	return nil
}

// SaveAnomaly 追加单条异常明细（append-only）
func (s *InvoiceStore) SaveAnomaly(ctx context.Context, invoiceID string, a *model.Anomaly) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := &AnomalyRecord{
			InvoiceID:    invoiceID,
			AnomalyKind:  a.Kind,
			Description:  a.Description,
			Severity:     a.Severity,
			AmountImpact: a.AmountImpact,
			CreatedAt:    time.Now(),
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}

		logRow := &ProcessingLogRecord{
			InvoiceID:   invoiceID,
			Action:      ActionAnomalySave,
			Details:     fmt.Sprintf("Anomaly recorded: %s (%s)", a.Kind, a.Severity),
			PerformedBy: "system",
			CreatedAt:   time.Now(),
		}
		return tx.Create(logRow).Error
	})
	if err != nil {
		return errorutil.RetriableWrap(err, "save anomaly failed")
	}

	return nil
}

// UpdateStatus 更新发票状态（评审流转），附带审计日志
func (s *InvoiceStore) UpdateStatus(ctx context.Context, invoiceID, status, notes string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&InvoiceRecord{}).
			Where("invoice_id = ?", invoiceID).
			Updates(map[string]interface{}{
				"status":       status,
				"processed_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return errorutil.RetriableWrap(result.Error, "update status failed")
		}
		if result.RowsAffected == 0 {
			return ErrInvoiceNotFound
		}

		if notes == "" {
			notes = "No notes"
		}
		logRow := &ProcessingLogRecord{
			InvoiceID:   invoiceID,
			Action:      ActionStatusUpdate,
			Details:     fmt.Sprintf("Status changed to %s. Notes: %s", status, notes),
			PerformedBy: "system",
			CreatedAt:   now,
		}
		return tx.Create(logRow).Error
	})
}

// GetInvoice 按发票号查询
func (s *InvoiceStore) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	var record InvoiceRecord
	err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return s.toDomain(&record), nil
}

// GetRecord 按发票号查询存储实体（含评分分值与标记快照）
func (s *InvoiceStore) GetRecord(ctx context.Context, invoiceID string) (*InvoiceRecord, error) {
	var record InvoiceRecord
	err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListAnomalies 查询发票的全部异常明细
func (s *InvoiceStore) ListAnomalies(ctx context.Context, invoiceID string) ([]model.Anomaly, error) {
	var rows []AnomalyRecord
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	anomalies := make([]model.Anomaly, 0, len(rows))
	for _, r := range rows {
		anomalies = append(anomalies, model.Anomaly{
			Kind:         r.AnomalyKind,
			Description:  r.Description,
			Severity:     r.Severity,
			AmountImpact: r.AmountImpact,
		})
	}
	return anomalies, nil
}

// ListLog 查询发票的处理日志
func (s *InvoiceStore) ListLog(ctx context.Context, invoiceID string) ([]ProcessingLogRecord, error) {
	var rows []ProcessingLogRecord
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// VendorHistory 查询供应商历史金额序列（占位供应商除外）
func (s *InvoiceStore) VendorHistory(ctx context.Context, vendor string) ([]float64, error) {
	if vendor == "" || vendor == model.SentinelUnknownVendor || vendor == model.SentinelNotFound {
		return nil, nil
	}

	var amounts []float64
	err := s.db.WithContext(ctx).
		Model(&InvoiceRecord{}).
		Where("vendor_name = ?", vendor).
		Pluck("total_amount", &amounts).Error
	return amounts, err
}

// Vendors 查询已入库的供应商列表（占位供应商除外）
func (s *InvoiceStore) Vendors(ctx context.Context) ([]string, error) {
	var vendors []string
	err := s.db.WithContext(ctx).
		Model(&InvoiceRecord{}).
		Where("vendor_name NOT IN ?", []string{model.SentinelUnknownVendor, model.SentinelNotFound}).
		Distinct("vendor_name").
		Pluck("vendor_name", &vendors).Error
	return vendors, err
}

// toRecord 领域对象转换为存储实体
func (s *InvoiceStore) toRecord(inv *model.Invoice, verdict *model.Verdict) (*InvoiceRecord, error) {
	now := time.Now()

	record := &InvoiceRecord{
		InvoiceID:       inv.InvoiceID,
		VendorName:      inv.VendorName,
		InvoiceDate:     inv.InvoiceDate,
		InvoiceMonth:    inv.Month(),
		DueDate:         inv.DueDate,
		TotalAmount:     inv.TotalAmount,
		TaxAmount:       inv.TaxAmount,
		ItemDescription: inv.ItemDescription,
		PaymentTerms:    inv.PaymentTerms,
		Department:      inv.Department,
		SourceType:      inv.SourceType,
		Status:          inv.Status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if record.Status == "" {
		record.Status = model.StatusPending
	}

	if verdict != nil {
		flagsJSON, err := json.Marshal(verdict.Flags)
		if err != nil {
			return nil, err
		}
		record.RiskLevel = verdict.RiskLevel
		record.AnomalyType = verdict.AnomalyType
		record.RiskScore = verdict.RiskScore
		record.Flags = flagsJSON
		record.ProcessedAt = &now
	}

	return record, nil
}

// toDomain 存储实体转换为领域对象
func (s *InvoiceStore) toDomain(record *InvoiceRecord) *model.Invoice {
	return &model.Invoice{
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
	}
}
