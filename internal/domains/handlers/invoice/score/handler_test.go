package score

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"iap/invcheck/internal/domains/common"
	"iap/invcheck/internal/domains/common/job"
	"iap/invcheck/internal/domains/common/response"
	"iap/invcheck/internal/engine"
	"iap/invcheck/internal/model"
	"iap/invcheck/internal/service"
	"iap/invcheck/internal/store"
	"iap/invcheck/pkg/logger"
)

// nopPublisher 丢弃回调消息
type nopPublisher struct{}

func (nopPublisher) Publish(queue string, data []byte, ttl, delay uint32) error {
	return nil
}

func newScoringContext(t *testing.T) context.Context {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := store.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	log := logger.NewNopLogger()
	invoiceStore := store.NewInvoiceStore(db)
	eng := engine.NewEngine(engine.NewScorer("weighted"))
	profiles := service.NewVendorProfileCache(invoiceStore, log)
	scoring := service.NewScoringService(eng, invoiceStore, profiles, nopPublisher{}, "cb", nil, "", 2, log)

	return context.WithValue(context.Background(), common.CtxKeyScoringService, scoring)
}

func scorePayload(batchID string) interface{} {
	return map[string]interface{}{
		"batch_id": batchID,
		"invoices": []map[string]interface{}{
			{"invoice_id": "INV-1", "vendor_name": "Acme", "invoice_date": "2025-03-10", "total_amount": 500.0},
			{"invoice_id": "INV-2", "vendor_name": "Acme", "invoice_date": "2025-03-11", "total_amount": 600.0},
		},
	}
}

func TestScoreHandlerProcess(t *testing.T) {
	ctx := newScoringContext(t)
	meta := &job.Meta{RequestID: "req-1", ActionType: model.ActionTypeScore, ID: "batch-1"}

	handler, err := NewScoreHandler(ctx, meta, scorePayload("batch-1"))
	if err != nil {
		t.Fatalf("NewScoreHandler failed: %v", err)
	}

	resp := handler.GetProcess()
	if resp.Error != nil {
		t.Fatalf("resp.Error = %+v, want nil", resp.Error)
	}
	if !resp.Processed {
		t.Error("resp.Processed = false, want true")
	}
	if resp.Result.GetStatus() != response.ScoreStatusSuccess {
		t.Errorf("result status = %s, want SUCCESS", resp.Result.GetStatus())
	}

	result, ok := resp.Result.(*response.ScoreResult)
	if !ok {
		t.Fatalf("result type = %T, want *ScoreResult", resp.Result)
	}
	data, ok := result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("result data type = %T, want map", result.Data)
	}
	if data["batch_id"] != "batch-1" || data["total"] != 2 {
		t.Errorf("result data = %+v, want batch-1 with total 2", data)
	}
}

func TestScoreHandlerMissingService(t *testing.T) {
	// 缺少注入的评分服务时，准备步骤失败并带出步骤名
	meta := &job.Meta{RequestID: "req-2", ActionType: model.ActionTypeScore, ID: "batch-2"}

	handler, err := NewScoreHandler(context.Background(), meta, scorePayload("batch-2"))
	if err != nil {
		t.Fatalf("NewScoreHandler failed: %v", err)
	}

	resp := handler.GetProcess()
	if resp.Error == nil {
		t.Fatal("resp.Error = nil, want error for missing service")
	}
	if resp.Processed {
		t.Error("resp.Processed = true, want false")
	}
	if !strings.Contains(resp.Error.Message, "step prepare") {
		t.Errorf("error message = %q, want failing step name", resp.Error.Message)
	}
}

func TestNewScoreHandlerValidation(t *testing.T) {
	ctx := context.Background()

	// batch_id 缺失且 meta.ID 为空
	meta := &job.Meta{RequestID: "req-3", ActionType: model.ActionTypeScore}
	if _, err := NewScoreHandler(ctx, meta, scorePayload("")); err == nil {
		t.Error("NewScoreHandler should reject empty batch_id")
	}

	// 空发票列表
	meta = &job.Meta{RequestID: "req-4", ActionType: model.ActionTypeScore, ID: "batch-4"}
	empty := map[string]interface{}{"batch_id": "batch-4", "invoices": []interface{}{}}
	if _, err := NewScoreHandler(ctx, meta, empty); err == nil {
		t.Error("NewScoreHandler should reject empty invoices")
	}

	// meta.ID 兜底 batch_id
	handler, err := NewScoreHandler(ctx, meta, scorePayload(""))
	if err != nil {
		t.Fatalf("NewScoreHandler failed: %v", err)
	}
	sh := handler.(*ScoreHandler)
	if sh.jobData.BatchID != "batch-4" {
		t.Errorf("BatchID = %s, want fallback to meta.ID", sh.jobData.BatchID)
	}
}
