package engine

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ForestConfig 隔离森林配置
type ForestConfig struct {
	Trees         int     // 树数量
	SampleSize    int     // 每棵树的子采样大小
	Contamination float64 // 预期异常比例，决定判定阈值
	Seed          int64   // 随机种子，保证同一批次结果可复现
}

// DefaultForestConfig 默认配置
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:         100,
		SampleSize:    256,
		Contamination: 0.1,
		Seed:          42,
	}
}

// isoNode 隔离树节点
type isoNode struct {
	split float64
	left  *isoNode
	right *isoNode
	size  int // 叶子节点的样本数
}

// IsolationForest 一维隔离森林（金额分布密度模型）
// 每批次拟合一次，批内所有发票复用同一模型
type IsolationForest struct {
	trees     []*isoNode
	norm      float64 // 平均路径长度归一化因子 c(n)
	threshold float64 // 异常分阈值（训练分布的 1-contamination 分位数）
}

// FitForest 在金额列上拟合隔离森林
func FitForest(values []float64, cfg ForestConfig) *IsolationForest {
	n := len(values)
	sampleSize := cfg.SampleSize
	if sampleSize > n {
		sampleSize = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize)))) + 1

	rng := rand.New(rand.NewSource(cfg.Seed))
	trees := make([]*isoNode, 0, cfg.Trees)
	for i := 0; i < cfg.Trees; i++ {
		sub := subsample(values, sampleSize, rng)
		trees = append(trees, buildTree(sub, 0, maxDepth, rng))
	}

	f := &IsolationForest{
		trees: trees,
		norm:  avgPathLength(sampleSize),
	}

	// 以训练分布的高分位作为判定阈值，训练集中约 contamination 比例判为异常
	scores := make([]float64, n)
	for i, v := range values {
		scores[i] = f.Score(v)
	}
	sort.Float64s(scores)
	f.threshold = stat.Quantile(1-cfg.Contamination, stat.Empirical, scores, nil)

	return f
}

// Score 计算异常分，范围 (0,1)，越大越异常
func (f *IsolationForest) Score(v float64) float64 {
	if len(f.trees) == 0 || f.norm == 0 {
		return 0
	}

	var total float64
	for _, t := range f.trees {
		total += pathLength(t, v, 0)
	}
	mean := total / float64(len(f.trees))

	return math.Pow(2, -mean/f.norm)
}

// IsOutlier 判断给定金额是否为密度异常点
func (f *IsolationForest) IsOutlier(v float64) bool {
	return f.Score(v) > f.threshold
}

// subsample 无放回随机子采样
func subsample(values []float64, size int, rng *rand.Rand) []float64 {
	if size >= len(values) {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	idx := rng.Perm(len(values))[:size]
	out := make([]float64, size)
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

// buildTree 递归构建隔离树
func buildTree(values []float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(values) <= 1 {
		return &isoNode{size: len(values)}
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		// 全部相等，无法继续分裂
		return &isoNode{size: len(values)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &isoNode{
		split: split,
		left:  buildTree(left, depth+1, maxDepth, rng),
		right: buildTree(right, depth+1, maxDepth, rng),
	}
}

// pathLength 计算样本在单棵树中的隔离路径长度
func pathLength(node *isoNode, v float64, depth int) float64 {
	if node.left == nil && node.right == nil {
		return float64(depth) + avgPathLength(node.size)
	}
	if v < node.split {
		return pathLength(node.left, v, depth+1)
	}
	return pathLength(node.right, v, depth+1)
}

// avgPathLength BST 失败查找的平均路径长度 c(n)
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	const eulerGamma = 0.5772156649
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}
