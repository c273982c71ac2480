package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"iap/invcheck/internal/model"
)

// newTestDB 每个测试独立的共享内存 sqlite 库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func sampleInvoice(id string, amount float64) *model.Invoice {
	return &model.Invoice{
		InvoiceID:   id,
		VendorName:  "Acme Corp",
		InvoiceDate: "2025-03-10",
		TotalAmount: amount,
		TaxAmount:   amount * 0.1,
	}
}

func sampleVerdict(id, level string) *model.Verdict {
	return &model.Verdict{
		InvoiceID:   id,
		Flags:       []string{"EXTREME_AMOUNT_HIGH"},
		RiskScore:   5,
		RiskLevel:   level,
		AnomalyType: model.CategoryExtremeAmount,
		Anomalies: []model.Anomaly{
			{Kind: "EXTREME_AMOUNT_HIGH", Description: "high", Severity: model.SeverityHigh, AmountImpact: 100},
		},
	}
}

func TestSaveScoredUpsert(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	ctx := context.Background()

	inv := sampleInvoice("INV-1", 60000)
	if err := s.SaveScored(ctx, inv, sampleVerdict("INV-1", model.RiskLevelHigh)); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// 重复保存按覆盖处理，不追加新行
	inv.TotalAmount = 70000
	if err := s.SaveScored(ctx, inv, sampleVerdict("INV-1", model.RiskLevelMedium)); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	var count int64
	if err := s.db.Model(&InvoiceRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("invoice rows = %d, want 1", count)
	}

	got, err := s.GetInvoice(ctx, "INV-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TotalAmount != 70000 {
		t.Errorf("TotalAmount = %v, want 70000", got.TotalAmount)
	}
	if got.RiskLevel != model.RiskLevelMedium {
		t.Errorf("RiskLevel = %s, want Medium", got.RiskLevel)
	}
}

func TestSaveScoredPersistsAnomaliesAndLog(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	ctx := context.Background()

	if err := s.SaveScored(ctx, sampleInvoice("INV-1", 60000), sampleVerdict("INV-1", model.RiskLevelHigh)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	anomalies, err := s.ListAnomalies(ctx, "INV-1")
	if err != nil {
		t.Fatalf("list anomalies failed: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("anomalies = %d, want 1", len(anomalies))
	}
	if anomalies[0].Kind != "EXTREME_AMOUNT_HIGH" {
		t.Errorf("anomaly kind = %s", anomalies[0].Kind)
	}

	logRows, err := s.ListLog(ctx, "INV-1")
	if err != nil {
		t.Fatalf("list log failed: %v", err)
	}
	if len(logRows) != 1 || logRows[0].Action != ActionSave {
		t.Errorf("log rows = %+v, want single SAVE entry", logRows)
	}
}

func TestSaveScoredSetsInvoiceMonth(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	ctx := context.Background()

	if err := s.SaveScored(ctx, sampleInvoice("INV-1", 100), sampleVerdict("INV-1", model.RiskLevelLow)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	record, err := s.GetRecord(ctx, "INV-1")
	if err != nil {
		t.Fatalf("get record failed: %v", err)
	}
	if record.InvoiceMonth != "2025-03" {
		t.Errorf("InvoiceMonth = %q, want 2025-03", record.InvoiceMonth)
	}
	if record.ProcessedAt == nil {
		t.Error("ProcessedAt should be set after scoring")
	}
}

func TestUpdateStatus(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	ctx := context.Background()

	if err := s.SaveScored(ctx, sampleInvoice("INV-1", 100), sampleVerdict("INV-1", model.RiskLevelLow)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := s.UpdateStatus(ctx, "INV-1", model.StatusApproved, "looks fine"); err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	got, err := s.GetInvoice(ctx, "INV-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.StatusApproved {
		t.Errorf("Status = %s, want Approved", got.Status)
	}

	logRows, _ := s.ListLog(ctx, "INV-1")
	if len(logRows) != 2 || logRows[1].Action != ActionStatusUpdate {
		t.Errorf("expected STATUS_UPDATE log entry, got %+v", logRows)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))

	err := s.UpdateStatus(context.Background(), "NO-SUCH", model.StatusApproved, "")
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("err = %v, want ErrInvoiceNotFound", err)
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))

	_, err := s.GetInvoice(context.Background(), "NO-SUCH")
	if !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("err = %v, want ErrInvoiceNotFound", err)
	}
}

func TestVendorHistoryExcludesSentinel(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	ctx := context.Background()

	if err := s.SaveInvoice(ctx, sampleInvoice("INV-1", 100)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	amounts, err := s.VendorHistory(ctx, model.SentinelUnknownVendor)
	if err != nil {
		t.Fatalf("vendor history failed: %v", err)
	}
	if amounts != nil {
		t.Errorf("sentinel vendor history = %v, want nil", amounts)
	}

	amounts, err = s.VendorHistory(ctx, "Acme Corp")
	if err != nil {
		t.Fatalf("vendor history failed: %v", err)
	}
	if len(amounts) != 1 || amounts[0] != 100 {
		t.Errorf("history = %v, want [100]", amounts)
	}
}

func TestVendors(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	ctx := context.Background()

	inv := sampleInvoice("INV-1", 100)
	if err := s.SaveInvoice(ctx, inv); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	unknown := sampleInvoice("INV-2", 100)
	unknown.VendorName = model.SentinelUnknownVendor
	if err := s.SaveInvoice(ctx, unknown); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	vendors, err := s.Vendors(ctx)
	if err != nil {
		t.Fatalf("vendors failed: %v", err)
	}
	if len(vendors) != 1 || vendors[0] != "Acme Corp" {
		t.Errorf("vendors = %v, want [Acme Corp]", vendors)
	}
}
