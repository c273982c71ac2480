package score

import (
	"context"
	"encoding/json"
	"fmt"

	"iap/invcheck/internal/domains/common"
	"iap/invcheck/internal/domains/common/job"
	"iap/invcheck/internal/domains/common/response"
	"iap/invcheck/internal/framework"
	"iap/invcheck/internal/model"
	"iap/invcheck/internal/service"
)

// ScoreHandler 批次评分 Handler
type ScoreHandler struct {
	ctx     context.Context
	meta    *job.Meta
	jobData *model.ScoreBatchData

	scoring  *service.ScoringService
	callback *model.BatchCallback
}

// NewScoreHandler 创建评分 Handler
// 解析标准化 Job 消息中的业务数据
func NewScoreHandler(ctx context.Context, meta *job.Meta, payload interface{}) (common.HandlerServ, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}

	var bizData model.ScoreBatchData
	if err := json.Unmarshal(payloadBytes, &bizData); err != nil {
		return nil, fmt.Errorf("unmarshal business data failed: %w", err)
	}

	if bizData.BatchID == "" {
		bizData.BatchID = meta.ID
	}
	if bizData.BatchID == "" {
		return nil, fmt.Errorf("batch_id is required")
	}
	if len(bizData.Invoices) == 0 {
		return nil, fmt.Errorf("invoices is empty")
	}

	return &ScoreHandler{
		ctx:     ctx,
		meta:    meta,
		jobData: &bizData,
	}, nil
}

// GetProcess 处理评分请求
// 按 准备 → 评分 → 汇总 的步骤链执行，任一步骤失败立即带错误返回
func (h *ScoreHandler) GetProcess() *response.Response {
	result := response.NewScoreResult()

	chain := framework.NewStepChain(
		framework.Step{Name: "prepare", Func: h.preProcess},
		framework.Step{Name: "score", Func: h.process},
		framework.Step{Name: "summarize", Func: func(ctx context.Context) error {
			return h.summarize(result)
		}},
	)
	err := chain.Run(h.ctx)

	resp := &response.Response{}
	resp.WrapResponse(result, h.meta, err)

	return resp
}

// preProcess 解析依赖：评分服务由上游注入到 Context
func (h *ScoreHandler) preProcess(ctx context.Context) error {
	scoring, ok := ctx.Value(common.CtxKeyScoringService).(*service.ScoringService)
	if !ok || scoring == nil {
		return fmt.Errorf("ScoringService not found in context")
	}
	h.scoring = scoring
	return nil
}

// process 执行批次评分
func (h *ScoreHandler) process(ctx context.Context) error {
	callback, err := h.scoring.ScoreBatch(ctx, h.meta.RequestID, h.jobData.BatchID, h.jobData.Invoices)
	if err != nil {
		return err
	}
	h.callback = callback
	return nil
}

// summarize 把批次结果写入响应
func (h *ScoreHandler) summarize(result *response.ScoreResult) error {
	result.Data = map[string]interface{}{
		"batch_id":    h.callback.BatchID,
		"total":       h.callback.Total,
		"high_risk":   h.callback.HighRisk,
		"medium_risk": h.callback.MediumRisk,
		"low_risk":    h.callback.LowRisk,
		"failed":      h.callback.Failed,
		"status":      h.callback.Status,
	}
	return nil
}
