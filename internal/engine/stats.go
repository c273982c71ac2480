package engine

import (
	"math"

	"iap/invcheck/internal/model"
)

// zScoreThreshold 超过 3 个标准差判为极端值
const zScoreThreshold = 3.0

// CheckStatistical 执行统计维度检测
// 三种方法相互独立，可同时命中；样本不足时整体跳过（不产出标记）
func CheckStatistical(inv *model.Invoice, batch *BatchContext) []FlagKind {
	if !batch.hasStats {
		return nil
	}

	flags := make([]FlagKind, 0, 3)
	amount := inv.TotalAmount

	// 方法一：密度模型（隔离森林，每批次拟合一次）
	if batch.forest != nil && batch.forest.IsOutlier(amount) {
		flags = append(flags, FlagStatisticalOutlier)
	}

	// 方法二：Z-score
	if batch.stddev > 0 {
		z := math.Abs(amount-batch.mean) / batch.stddev
		if z > zScoreThreshold {
			flags = append(flags, FlagExtremeZScore)
		}
	}

	// 方法三：IQR
	if amount < batch.lowerBound || amount > batch.upperBound {
		flags = append(flags, FlagIQROutlier)
	}

	return flags
}
