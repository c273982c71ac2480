package engine

import (
	"context"
	"fmt"
	"testing"

	"iap/invcheck/internal/model"
)

// mixedBatch 构造带重复对与极端金额的批次
// 日期全部落在工作日，避免时间维度标记干扰断言
func mixedBatch() []model.Invoice {
	amounts := []float64{95, 96, 97, 98, 99, 101, 102, 103, 104, 105}
	weekdays := []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14"}

	invoices := make([]model.Invoice, 0, 13)
	for i, a := range amounts {
		invoices = append(invoices, model.Invoice{
			InvoiceID:   fmt.Sprintf("INV-%03d", i),
			VendorName:  fmt.Sprintf("Vendor-%d", i),
			InvoiceDate: weekdays[i%len(weekdays)],
			TotalAmount: a,
		})
	}

	// 精确重复对
	for i := 0; i < 2; i++ {
		invoices = append(invoices, model.Invoice{
			InvoiceID:   "INV-DUP",
			VendorName:  "Acme",
			InvoiceDate: "2025-03-10",
			TotalAmount: 100,
		})
	}

	// 极端金额
	invoices = append(invoices, model.Invoice{
		InvoiceID:   "INV-BIG",
		VendorName:  "MegaCorp",
		InvoiceDate: "2025-03-11",
		TotalAmount: 75000,
	})

	return invoices
}

func TestScoreInvoiceDuplicate(t *testing.T) {
	eng := NewEngine(WeightedScorer{})
	invoices := mixedBatch()
	batch := NewBatchContext(invoices, nil)

	var dup *model.Invoice
	for i := range invoices {
		if invoices[i].InvoiceID == "INV-DUP" {
			dup = &invoices[i]
			break
		}
	}

	verdict := eng.ScoreInvoice(context.Background(), dup, batch)
	if verdict.AnomalyType != model.CategoryDuplicate {
		t.Errorf("AnomalyType = %s, want %s", verdict.AnomalyType, model.CategoryDuplicate)
	}

	found := false
	for _, f := range verdict.Flags {
		if f == string(FlagPotentialDuplicate) {
			found = true
		}
	}
	if !found {
		t.Errorf("Flags = %v, want POTENTIAL_DUPLICATE", verdict.Flags)
	}

	// 每个标记都应展开为异常明细
	if len(verdict.Anomalies) != len(verdict.Flags) {
		t.Errorf("anomalies (%d) and flags (%d) out of sync", len(verdict.Anomalies), len(verdict.Flags))
	}
	for _, a := range verdict.Anomalies {
		if a.Kind == string(FlagPotentialDuplicate) && a.AmountImpact != dup.TotalAmount {
			t.Errorf("duplicate AmountImpact = %v, want full amount %v", a.AmountImpact, dup.TotalAmount)
		}
	}
}

func TestScoreInvoiceExtremeAmount(t *testing.T) {
	eng := NewEngine(WeightedScorer{})
	invoices := mixedBatch()
	batch := NewBatchContext(invoices, nil)

	var big *model.Invoice
	for i := range invoices {
		if invoices[i].InvoiceID == "INV-BIG" {
			big = &invoices[i]
			break
		}
	}

	verdict := eng.ScoreInvoice(context.Background(), big, batch)
	if verdict.RiskLevel != model.RiskLevelHigh {
		t.Errorf("RiskLevel = %s (score %d), want High", verdict.RiskLevel, verdict.RiskScore)
	}
	if verdict.AnomalyType != model.CategoryExtremeAmount {
		t.Errorf("AnomalyType = %s, want %s", verdict.AnomalyType, model.CategoryExtremeAmount)
	}
}

func TestScoreInvoiceClean(t *testing.T) {
	eng := NewEngine(WeightedScorer{})
	invoices := mixedBatch()
	batch := NewBatchContext(invoices, nil)

	// 中间值发票：无规则/重复/供应商标记
	var clean *model.Invoice
	for i := range invoices {
		if invoices[i].InvoiceID == "INV-004" { // 99
			clean = &invoices[i]
			break
		}
	}

	verdict := eng.ScoreInvoice(context.Background(), clean, batch)
	if verdict.RiskLevel != model.RiskLevelLow {
		t.Errorf("RiskLevel = %s (flags %v), want Low", verdict.RiskLevel, verdict.Flags)
	}
}

func TestScoreInvoiceDeterministic(t *testing.T) {
	eng := NewEngine(WeightedScorer{})
	invoices := mixedBatch()

	// 相同数据集两次独立构建上下文，评分结论应完全一致
	b1 := NewBatchContext(mixedBatch(), nil)
	b2 := NewBatchContext(mixedBatch(), nil)

	for i := range invoices {
		v1 := eng.ScoreInvoice(context.Background(), &invoices[i], b1)
		v2 := eng.ScoreInvoice(context.Background(), &invoices[i], b2)
		if v1.RiskScore != v2.RiskScore || v1.RiskLevel != v2.RiskLevel {
			t.Errorf("invoice %s: verdict differs between identical batches", invoices[i].InvoiceID)
		}
	}
}
