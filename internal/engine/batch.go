package engine

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"iap/invcheck/internal/model"
)

// minStatSample 统计检测所需的最小样本量，不足时统计检测整体跳过
const minStatSample = 10

// BatchContext 单批次评分上下文
// 持有工作数据集快照、拟合好的密度模型与分布统计量，由调用方显式创建并
// 传入每次单票评分调用；批内只读，可安全并发使用
type BatchContext struct {
	invoices []model.Invoice
	byVendor map[string][]*model.Invoice

	// 统计检测状态（样本不足时 hasStats=false）
	hasStats   bool
	forest     *IsolationForest
	mean       float64
	stddev     float64
	lowerBound float64
	upperBound float64

	// 供应商历史画像（存储层预先计算，允许为空）
	profiles map[string]VendorProfile
}

// NewBatchContext 构建批次上下文并一次性拟合统计模型
func NewBatchContext(invoices []model.Invoice, profiles map[string]VendorProfile) *BatchContext {
	b := &BatchContext{
		invoices: invoices,
		byVendor: make(map[string][]*model.Invoice),
		profiles: profiles,
	}

	for i := range invoices {
		inv := &invoices[i]
		b.byVendor[inv.VendorName] = append(b.byVendor[inv.VendorName], inv)
	}

	if len(invoices) < minStatSample {
		return b
	}

	amounts := make([]float64, len(invoices))
	for i := range invoices {
		amounts[i] = invoices[i].TotalAmount
	}

	b.mean = stat.Mean(amounts, nil)
	b.stddev = stat.StdDev(amounts, nil)

	sorted := make([]float64, len(amounts))
	copy(sorted, amounts)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1
	b.lowerBound = q1 - 1.5*iqr
	b.upperBound = q3 + 1.5*iqr

	b.forest = FitForest(amounts, DefaultForestConfig())
	b.hasStats = true

	return b
}

// Size 返回工作数据集大小
func (b *BatchContext) Size() int {
	return len(b.invoices)
}

// Invoices 返回数据集快照
func (b *BatchContext) Invoices() []model.Invoice {
	return b.invoices
}

// VendorInvoices 返回同供应商的全部发票（含自身）
func (b *BatchContext) VendorInvoices(vendor string) []*model.Invoice {
	return b.byVendor[vendor]
}

// ProfileFor 返回发票对应供应商的画像
// 历史画像缺失时退回批内画像：用同批该供应商的其他发票金额构建（不含自身，
// 避免异常金额抬高自己的基线）；inv 必须指向批内数据集中的元素
func (b *BatchContext) ProfileFor(inv *model.Invoice) (VendorProfile, bool) {
	if p, ok := b.profiles[inv.VendorName]; ok {
		return p, true
	}

	peers := b.byVendor[inv.VendorName]
	amounts := make([]float64, 0, len(peers))
	for _, peer := range peers {
		if peer == inv {
			continue
		}
		amounts = append(amounts, peer.TotalAmount)
	}
	if len(amounts) == 0 {
		return VendorProfile{}, false
	}
	return BuildProfile(amounts), true
}
