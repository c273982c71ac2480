package engine

import (
	"strings"

	"iap/invcheck/internal/model"
)

// Scorer 风险评分器
// 输入全部命中标记与发票金额，输出风险分与风险等级
type Scorer interface {
	Score(flags []FlagKind, amount float64) int
	Level(score int) string
	Name() string
}

// NewScorer 按公式名创建评分器，未知名称回落到加权公式
func NewScorer(formula string) Scorer {
	if strings.EqualFold(formula, "legacy") {
		return LegacyScorer{}
	}
	return WeightedScorer{}
}

// WeightedScorer 加权评分公式（标准公式）
// 规则/供应商/时间维度标记各 +1，统计维度标记 +2，
// 金额加成二选一：>10000 为 +2，否则 >5000 为 +1
type WeightedScorer struct{}

// Name 公式名
func (WeightedScorer) Name() string { return "weighted" }

// Score 计算风险分
func (WeightedScorer) Score(flags []FlagKind, amount float64) int {
	score := 0
	for _, f := range flags {
		if f.Group() == GroupStatistical {
			score += 2
		} else {
			score++
		}
	}

	if amount > 10000 {
		score += 2
	} else if amount > 5000 {
		score++
	}

	return score
}

// Level 分数映射风险等级
func (WeightedScorer) Level(score int) string {
	switch {
	case score >= 5:
		return model.RiskLevelHigh
	case score >= 3:
		return model.RiskLevelMedium
	default:
		return model.RiskLevelLow
	}
}

// LegacyScorer 旧版简化公式（保留兼容，按配置启用）
// 每个标记 +1，金额 >10000 再 +1，重复与极端金额标记额外 +2
type LegacyScorer struct{}

// Name 公式名
func (LegacyScorer) Name() string { return "legacy" }

// Score 计算风险分
func (LegacyScorer) Score(flags []FlagKind, amount float64) int {
	score := len(flags)
	if amount > 10000 {
		score++
	}
	for _, f := range flags {
		switch f {
		case FlagPotentialDuplicate, FlagExtremeAmountHigh, FlagExtremeAmountLow:
			score += 2
		}
	}
	return score
}

// Level 分数映射风险等级
func (LegacyScorer) Level(score int) string {
	switch {
	case score >= 3:
		return model.RiskLevelHigh
	case score >= 2:
		return model.RiskLevelMedium
	default:
		return model.RiskLevelLow
	}
}

// Categorize 从标记集推导主异常分类（按固定优先级取首个命中）
func Categorize(flags []FlagKind) string {
	has := func(kinds ...FlagKind) bool {
		for _, f := range flags {
			for _, k := range kinds {
				if f == k {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has(FlagPotentialDuplicate):
		return model.CategoryDuplicate
	case has(FlagExtremeAmountHigh, FlagExtremeAmountLow):
		return model.CategoryExtremeAmount
	case has(FlagStatisticalOutlier, FlagExtremeZScore, FlagIQROutlier):
		return model.CategoryStatistical
	case has(FlagVendorAmountDeviation, FlagExceedsVendorMax):
		return model.CategoryVendorPattern
	case has(FlagMissingVendorInfo, FlagMissingInvoiceID):
		return model.CategoryDataQuality
	default:
		return model.CategoryNone
	}
}
