package engine

import (
	"testing"

	"iap/invcheck/internal/model"
)

func hasFlag(flags []FlagKind, kind FlagKind) bool {
	for _, f := range flags {
		if f == kind {
			return true
		}
	}
	return false
}

func TestCheckRulesExtremeAmounts(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		want   FlagKind
	}{
		{"high", 60000, FlagExtremeAmountHigh},
		{"low", 5, FlagExtremeAmountLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := &model.Invoice{InvoiceID: "INV-1", VendorName: "Acme", TotalAmount: tc.amount}
			flags := CheckRules(inv)
			if !hasFlag(flags, tc.want) {
				t.Errorf("CheckRules(amount=%v) = %v, want contains %s", tc.amount, flags, tc.want)
			}
		})
	}

	inv := &model.Invoice{InvoiceID: "INV-1", VendorName: "Acme", TotalAmount: 500}
	flags := CheckRules(inv)
	if hasFlag(flags, FlagExtremeAmountHigh) || hasFlag(flags, FlagExtremeAmountLow) {
		t.Errorf("CheckRules(amount=500) = %v, want no extreme flags", flags)
	}
}

func TestCheckRulesRoundAmount(t *testing.T) {
	inv := &model.Invoice{InvoiceID: "INV-1", VendorName: "Acme", TotalAmount: 6000}
	if flags := CheckRules(inv); !hasFlag(flags, FlagRoundAmountSuspicious) {
		t.Errorf("CheckRules(amount=6000) = %v, want ROUND_AMOUNT_SUSPICIOUS", flags)
	}

	// 整千但低于下限
	inv.TotalAmount = 3000
	if flags := CheckRules(inv); hasFlag(flags, FlagRoundAmountSuspicious) {
		t.Errorf("CheckRules(amount=3000) = %v, want no round flag", flags)
	}

	// 超过下限但非整千
	inv.TotalAmount = 6500
	if flags := CheckRules(inv); hasFlag(flags, FlagRoundAmountSuspicious) {
		t.Errorf("CheckRules(amount=6500) = %v, want no round flag", flags)
	}
}

func TestCheckRulesTax(t *testing.T) {
	// 预期税额 100，偏差 50 超出容差
	inv := &model.Invoice{InvoiceID: "INV-1", VendorName: "Acme", TotalAmount: 1000, TaxAmount: 50}
	if flags := CheckRules(inv); !hasFlag(flags, FlagTaxCalculationAnomaly) {
		t.Errorf("CheckRules(tax=50) = %v, want TAX_CALCULATION_ANOMALY", flags)
	}

	inv.TaxAmount = 100
	if flags := CheckRules(inv); hasFlag(flags, FlagTaxCalculationAnomaly) {
		t.Errorf("CheckRules(tax=100) = %v, want no tax flag", flags)
	}

	// 税额缺失时跳过检查
	inv.TaxAmount = 0
	if flags := CheckRules(inv); hasFlag(flags, FlagTaxCalculationAnomaly) {
		t.Errorf("CheckRules(tax=0) = %v, want no tax flag", flags)
	}
}

func TestCheckRulesMissingFields(t *testing.T) {
	inv := &model.Invoice{
		InvoiceID:   model.SentinelNotFound,
		VendorName:  model.SentinelUnknownVendor,
		TotalAmount: 500,
	}
	flags := CheckRules(inv)
	if !hasFlag(flags, FlagMissingVendorInfo) {
		t.Errorf("CheckRules = %v, want MISSING_VENDOR_INFO", flags)
	}
	if !hasFlag(flags, FlagMissingInvoiceID) {
		t.Errorf("CheckRules = %v, want MISSING_INVOICE_ID", flags)
	}
}

func TestCheckTemporal(t *testing.T) {
	cases := []struct {
		name string
		date string
		want bool
	}{
		{"saturday", "2025-01-04", true},
		{"sunday", "2025-01-05", true},
		{"monday", "2025-01-06", false},
		{"unparseable", "not-a-date", false},
		{"empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := &model.Invoice{InvoiceID: "INV-1", VendorName: "Acme", InvoiceDate: tc.date}
			flags := CheckTemporal(inv)
			got := hasFlag(flags, FlagWeekendInvoice)
			if got != tc.want {
				t.Errorf("CheckTemporal(%q) weekend flag = %v, want %v", tc.date, got, tc.want)
			}
		})
	}
}
