package engine

import (
	"math"
	"time"

	"iap/invcheck/internal/model"
)

// 业务规则阈值
const (
	extremeHighThreshold = 50000.0
	extremeLowThreshold  = 10.0
	roundAmountUnit      = 1000.0
	roundAmountFloor     = 5000.0
	expectedTaxRate      = 0.10
	taxTolerance         = 1.0
)

// CheckRules 执行确定性业务规则检查
// 各规则相互独立，命中即追加，互不排斥
func CheckRules(inv *model.Invoice) []FlagKind {
	flags := make([]FlagKind, 0, 4)

	amount := inv.TotalAmount
	if amount > extremeHighThreshold {
		flags = append(flags, FlagExtremeAmountHigh)
	} else if amount < extremeLowThreshold {
		flags = append(flags, FlagExtremeAmountLow)
	}

	// 整千金额且超过 5000，人为拆分/虚开的常见模式
	if amount > roundAmountFloor && math.Mod(amount, roundAmountUnit) == 0 {
		flags = append(flags, FlagRoundAmountSuspicious)
	}

	if inv.TaxAmount > 0 {
		expected := inv.TotalAmount * expectedTaxRate
		if math.Abs(inv.TaxAmount-expected) > taxTolerance {
			flags = append(flags, FlagTaxCalculationAnomaly)
		}
	}

	if !inv.HasVendor() {
		flags = append(flags, FlagMissingVendorInfo)
	}
	if !inv.HasInvoiceID() {
		flags = append(flags, FlagMissingInvoiceID)
	}

	return flags
}

// CheckTemporal 执行时间维度检查
// 日期无法解析时不产出标记
func CheckTemporal(inv *model.Invoice) []FlagKind {
	date, ok := inv.ParseDate()
	if !ok {
		return nil
	}

	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return []FlagKind{FlagWeekendInvoice}
	}

	return nil
}
