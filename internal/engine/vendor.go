package engine

import (
	"gonum.org/v1/gonum/stat"

	"iap/invcheck/internal/model"
)

// 供应商行为阈值
const (
	vendorDeviationRatio = 3.0 // 超过历史均值 3 倍
	vendorMaxRatio       = 1.5 // 超过历史最大值 1.5 倍
	minVendorHistory     = 2   // 至少两条历史记录才有可比性
)

// VendorProfile 供应商历史金额画像
type VendorProfile struct {
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// BuildProfile 由历史金额序列计算画像
func BuildProfile(amounts []float64) VendorProfile {
	if len(amounts) == 0 {
		return VendorProfile{}
	}

	maxAmount := amounts[0]
	for _, v := range amounts {
		if v > maxAmount {
			maxAmount = v
		}
	}

	p := VendorProfile{
		Mean:  stat.Mean(amounts, nil),
		Max:   maxAmount,
		Count: len(amounts),
	}
	if len(amounts) > 1 {
		p.StdDev = stat.StdDev(amounts, nil)
	}
	return p
}

// CheckVendorBehavior 检查发票金额相对供应商历史模式的偏离
// 画像优先取存储层历史，缺失时退回批内画像；样本不足时不产出标记，
// 检测器优雅跳过
func CheckVendorBehavior(inv *model.Invoice, batch *BatchContext) []FlagKind {
	if !inv.HasVendor() {
		return nil
	}

	profile, ok := batch.ProfileFor(inv)
	if !ok || profile.Count < minVendorHistory {
		return nil
	}

	flags := make([]FlagKind, 0, 2)
	amount := inv.TotalAmount

	if profile.Mean > 0 && amount > profile.Mean*vendorDeviationRatio {
		flags = append(flags, FlagVendorAmountDeviation)
	}
	if profile.Max > 0 && amount > profile.Max*vendorMaxRatio {
		flags = append(flags, FlagExceedsVendorMax)
	}

	return flags
}
