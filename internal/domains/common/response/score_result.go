package response

import (
	"iap/invcheck/internal/domains/common/job"
	"iap/invcheck/pkg/errorutil"
)

// 批次评分结果状态
const (
	ScoreStatusSuccess = "SUCCESS"
	ScoreStatusFailed  = "FAILED"
)

// ScoreResult 批次评分结果（实现 ResultI 接口）
type ScoreResult struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Data   interface{}      `json:"data"`
	Error  *errorutil.Error `json:"error,omitempty"`
}

// NewScoreResult 创建评分结果
func NewScoreResult() *ScoreResult {
	return &ScoreResult{}
}

// Set 实现 ResultI 接口
func (r *ScoreResult) Set(meta *job.Meta, err error) {
	r.ID = meta.ID
	if err != nil {
		r.Status = ScoreStatusFailed
		r.Error = errorutil.Wrap(err)
	} else {
		r.Status = ScoreStatusSuccess
	}
}

// GetStatus 实现 ResultI 接口
func (r *ScoreResult) GetStatus() string {
	return r.Status
}
