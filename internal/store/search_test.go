package store

import (
	"context"
	"fmt"
	"testing"

	"iap/invcheck/internal/model"
)

// seedSearchData 五个供应商、递增金额与日期
func seedSearchData(t *testing.T, s *InvoiceStore) {
	t.Helper()
	ctx := context.Background()

	vendors := []string{"Acme Corp", "Beta Ltd", "Gamma Inc", "Acme Offices", "Delta LLC"}
	for i := 0; i < 5; i++ {
		inv := &model.Invoice{
			InvoiceID:   fmt.Sprintf("INV-%d", i+1),
			VendorName:  vendors[i],
			InvoiceDate: fmt.Sprintf("2025-03-%02d", i+10),
			TotalAmount: float64((i + 1) * 1000),
		}
		verdict := &model.Verdict{
			InvoiceID:   inv.InvoiceID,
			RiskScore:   i,
			RiskLevel:   model.RiskLevelLow,
			AnomalyType: model.CategoryNone,
		}
		if i == 4 {
			verdict.RiskLevel = model.RiskLevelHigh
			verdict.AnomalyType = model.CategoryExtremeAmount
		}
		if err := s.SaveScored(ctx, inv, verdict); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

func TestSearchAmountRange(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	seedSearchData(t, s)

	result, err := s.Search(context.Background(), SearchFilters{
		MinAmount: 2000, HasMin: true,
		MaxAmount: 4000, HasMax: true,
	}, "", "", 1, 20)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if result.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", result.TotalCount)
	}
	for _, r := range result.Records {
		if r.TotalAmount < 2000 || r.TotalAmount > 4000 {
			t.Errorf("record %s amount %v outside range", r.InvoiceID, r.TotalAmount)
		}
	}
}

func TestSearchVendorSubstring(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	seedSearchData(t, s)

	// 子串匹配，大小写不敏感
	result, err := s.Search(context.Background(), SearchFilters{Vendor: "acme"}, "", "", 1, 20)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", result.TotalCount)
	}
}

func TestSearchRiskLevel(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	seedSearchData(t, s)

	result, err := s.Search(context.Background(), SearchFilters{RiskLevel: model.RiskLevelHigh}, "", "", 1, 20)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.TotalCount != 1 || result.Records[0].InvoiceID != "INV-5" {
		t.Errorf("high risk search = %+v, want only INV-5", result.Records)
	}
}

func TestSearchSort(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	seedSearchData(t, s)

	result, err := s.Search(context.Background(), SearchFilters{}, "total_amount", "asc", 1, 20)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	for i := 1; i < len(result.Records); i++ {
		if result.Records[i].TotalAmount < result.Records[i-1].TotalAmount {
			t.Errorf("records not sorted ascending by amount")
		}
	}

	// 非法排序字段回落到默认排序（日期降序）
	result, err = s.Search(context.Background(), SearchFilters{}, "evil; DROP TABLE", "", 1, 20)
	if err != nil {
		t.Fatalf("search with invalid sort failed: %v", err)
	}
	if len(result.Records) != 5 {
		t.Errorf("records = %d, want 5", len(result.Records))
	}
	if result.Records[0].InvoiceDate != "2025-03-14" {
		t.Errorf("first record date = %s, want latest", result.Records[0].InvoiceDate)
	}
}

func TestSearchPagination(t *testing.T) {
	s := NewInvoiceStore(newTestDB(t))
	seedSearchData(t, s)

	result, err := s.Search(context.Background(), SearchFilters{}, "", "", 1, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(result.Records) != 2 || result.TotalPages != 3 {
		t.Errorf("page 1: records=%d total_pages=%d, want 2/3", len(result.Records), result.TotalPages)
	}

	// 超出范围的页码：空记录集但计数正确
	result, err = s.Search(context.Background(), SearchFilters{}, "", "", 99, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(result.Records) != 0 {
		t.Errorf("out-of-range page records = %d, want 0", len(result.Records))
	}
	if result.TotalCount != 5 || result.TotalPages != 3 {
		t.Errorf("out-of-range page counts = %d/%d, want 5/3", result.TotalCount, result.TotalPages)
	}

	// 非法页码参数归一化
	result, err = s.Search(context.Background(), SearchFilters{}, "", "", 0, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if result.Page != 1 || result.PerPage != 20 {
		t.Errorf("normalized page=%d per_page=%d, want 1/20", result.Page, result.PerPage)
	}
}
