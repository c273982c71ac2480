package engine

import (
	"math"

	"iap/invcheck/internal/model"
)

// 重复检测阈值
const (
	fuzzyAmountTolerance = 0.01 // 金额相差 ≤ 1%
	fuzzyDateWindowDays  = 7    // 日期相差 ≤ 7 天
)

// IsDuplicate 判断发票在工作数据集中是否为重复
// 精确匹配：同 (vendor, invoice_id) 出现多于一条
// 模糊匹配：同供应商、不同发票号、金额相差 ≤1%、日期相差 ≤7 天
// 占位值发票无法可信匹配，直接豁免
func IsDuplicate(inv *model.Invoice, batch *BatchContext) bool {
	if !inv.HasVendor() || !inv.HasInvoiceID() {
		return false
	}

	peers := batch.VendorInvoices(inv.VendorName)

	exactCount := 0
	for _, other := range peers {
		if other.InvoiceID == inv.InvoiceID {
			exactCount++
		}
	}
	if exactCount > 1 {
		return true
	}

	date, hasDate := inv.ParseDate()
	if !hasDate {
		// 无日期则无法做日期窗口比较，模糊匹配整体跳过
		return false
	}

	tolerance := inv.TotalAmount * fuzzyAmountTolerance
	for _, other := range peers {
		if other.InvoiceID == inv.InvoiceID {
			continue
		}
		if math.Abs(other.TotalAmount-inv.TotalAmount) > tolerance {
			continue
		}
		otherDate, ok := other.ParseDate()
		if !ok {
			continue
		}
		days := math.Abs(otherDate.Sub(date).Hours() / 24)
		if days <= fuzzyDateWindowDays {
			return true
		}
	}

	return false
}
