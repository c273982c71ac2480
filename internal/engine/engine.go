package engine

import (
	"context"

	"iap/invcheck/internal/model"
)

// Engine 异常评分引擎（组装全部检测器）
// 除评分公式外无内部状态，批次状态由 BatchContext 显式传入，
// 同一批次内可安全并发调用 ScoreInvoice
type Engine struct {
	scorer Scorer
}

// NewEngine 创建评分引擎
func NewEngine(scorer Scorer) *Engine {
	return &Engine{scorer: scorer}
}

// ScoreInvoice 对单张发票执行完整异常评分
// 各检测器独立产出标记集，汇总为风险分、风险等级与主异常分类
func (e *Engine) ScoreInvoice(ctx context.Context, inv *model.Invoice, batch *BatchContext) *model.Verdict {
	flags := make([]FlagKind, 0, 8)

	// 1. 重复检测
	if IsDuplicate(inv, batch) {
		flags = append(flags, FlagPotentialDuplicate)
	}

	// 2. 业务规则
	flags = append(flags, CheckRules(inv)...)

	// 3. 统计检测（复用批次拟合的模型）
	flags = append(flags, CheckStatistical(inv, batch)...)

	// 4. 供应商行为
	flags = append(flags, CheckVendorBehavior(inv, batch)...)

	// 5. 时间维度
	flags = append(flags, CheckTemporal(inv)...)

	score := e.scorer.Score(flags, inv.TotalAmount)

	verdict := &model.Verdict{
		InvoiceID:   inv.InvoiceID,
		Flags:       make([]string, 0, len(flags)),
		RiskScore:   score,
		RiskLevel:   e.scorer.Level(score),
		AnomalyType: Categorize(flags),
		Anomalies:   make([]model.Anomaly, 0, len(flags)),
	}

	for _, f := range flags {
		verdict.Flags = append(verdict.Flags, string(f))
		verdict.Anomalies = append(verdict.Anomalies, f.Anomaly(inv))
	}

	return verdict
}

// FormulaName 当前启用的评分公式名
func (e *Engine) FormulaName() string {
	return e.scorer.Name()
}
