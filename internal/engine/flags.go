package engine

import (
	"fmt"
	"math"

	"iap/invcheck/internal/model"
)

// FlagKind 异常标记类型（封闭枚举）
// 所有检测器只允许产出以下标记，severity/分类/金额影响均由类型静态映射
type FlagKind string

const (
	FlagPotentialDuplicate    FlagKind = "POTENTIAL_DUPLICATE"
	FlagExtremeAmountHigh     FlagKind = "EXTREME_AMOUNT_HIGH"
	FlagExtremeAmountLow      FlagKind = "EXTREME_AMOUNT_LOW"
	FlagRoundAmountSuspicious FlagKind = "ROUND_AMOUNT_SUSPICIOUS"
	FlagTaxCalculationAnomaly FlagKind = "TAX_CALCULATION_ANOMALY"
	FlagMissingVendorInfo     FlagKind = "MISSING_VENDOR_INFO"
	FlagMissingInvoiceID      FlagKind = "MISSING_INVOICE_ID"
	FlagWeekendInvoice        FlagKind = "WEEKEND_INVOICE"
	FlagStatisticalOutlier    FlagKind = "STATISTICAL_OUTLIER"
	FlagExtremeZScore         FlagKind = "EXTREME_Z_SCORE"
	FlagIQROutlier            FlagKind = "IQR_OUTLIER"
	FlagVendorAmountDeviation FlagKind = "VENDOR_AMOUNT_DEVIATION"
	FlagExceedsVendorMax      FlagKind = "EXCEEDS_VENDOR_HISTORICAL_MAX"
)

// Group 检测器分组（决定风险分权重）
type Group int

const (
	GroupRule Group = iota
	GroupStatistical
	GroupVendor
	GroupTemporal
)

// Group 返回标记所属分组
func (k FlagKind) Group() Group {
	switch k {
	case FlagStatisticalOutlier, FlagExtremeZScore, FlagIQROutlier:
		return GroupStatistical
	case FlagVendorAmountDeviation, FlagExceedsVendorMax:
		return GroupVendor
	case FlagWeekendInvoice:
		return GroupTemporal
	default:
		return GroupRule
	}
}

// Severity 返回标记的固定严重程度
func (k FlagKind) Severity() string {
	switch k {
	case FlagPotentialDuplicate, FlagExtremeAmountHigh, FlagExtremeZScore, FlagExceedsVendorMax:
		return model.SeverityHigh
	case FlagStatisticalOutlier, FlagIQROutlier, FlagVendorAmountDeviation, FlagTaxCalculationAnomaly:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// Describe 生成人类可读描述
func (k FlagKind) Describe(inv *model.Invoice) string {
	switch k {
	case FlagPotentialDuplicate:
		return fmt.Sprintf("Possible duplicate of invoice %s from %s", inv.InvoiceID, inv.VendorName)
	case FlagExtremeAmountHigh:
		return fmt.Sprintf("Extremely high amount: $%.2f", inv.TotalAmount)
	case FlagExtremeAmountLow:
		return fmt.Sprintf("Extremely low amount: $%.2f", inv.TotalAmount)
	case FlagStatisticalOutlier:
		return "Amount is statistical outlier based on dataset distribution"
	case FlagExtremeZScore:
		return "Amount exceeds 3 standard deviations from mean"
	case FlagIQROutlier:
		return "Amount falls outside interquartile outlier bounds"
	case FlagVendorAmountDeviation:
		return "Amount significantly deviates from vendor's historical pattern"
	case FlagExceedsVendorMax:
		return "Amount exceeds 150% of vendor's historical maximum"
	case FlagTaxCalculationAnomaly:
		return "Tax amount doesn't match expected calculation"
	default:
		return fmt.Sprintf("Anomaly detected: %s", string(k))
	}
}

// AmountImpact 预估风险金额
func (k FlagKind) AmountImpact(inv *model.Invoice) float64 {
	switch k {
	case FlagPotentialDuplicate:
		// 重复支付时全额处于风险中
		return inv.TotalAmount
	case FlagExtremeAmountHigh:
		return inv.TotalAmount * 0.1
	case FlagStatisticalOutlier:
		return inv.TotalAmount * 0.05
	case FlagTaxCalculationAnomaly:
		return math.Abs(inv.TaxAmount - inv.TotalAmount*expectedTaxRate)
	default:
		return 0
	}
}

// Anomaly 将标记展开为异常明细
func (k FlagKind) Anomaly(inv *model.Invoice) model.Anomaly {
	return model.Anomaly{
		Kind:         string(k),
		Description:  k.Describe(inv),
		Severity:     k.Severity(),
		AmountImpact: k.AmountImpact(inv),
	}
}
