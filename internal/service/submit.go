package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"iap/invcheck/internal/model"
	"iap/invcheck/pkg/logger"
)

// SubmitService 批次提交服务（apiserver 侧）
// 职责：生成批次标识 → 封装标准 Job → 投递评分队列
type SubmitService struct {
	publisher CallbackPublisher
	queue     string
	logger    logger.Logger
}

// NewSubmitService 创建提交服务实例
func NewSubmitService(publisher CallbackPublisher, queue string, log logger.Logger) *SubmitService {
	return &SubmitService{
		publisher: publisher,
		queue:     queue,
		logger:    log,
	}
}

// SubmitBatch 提交一批发票进入评分队列
// 返回批次 ID，调用方凭此轮询评分结果
func (s *SubmitService) SubmitBatch(ctx context.Context, invoices []model.Invoice) (string, error) {
	batchID := uuid.New().String()
	requestID := uuid.New().String()

	job := &model.ScoreJob{
		Payload: model.ScoreJobPayload{
			Data: model.ScoreJobData{
				RequestID:  requestID,
				ActionType: model.ActionTypeScore,
				ID:         batchID,
				Data: model.ScoreBatchData{
					BatchID:  batchID,
					Invoices: invoices,
				},
			},
		},
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal score job failed: %w", err)
	}

	if err := s.publisher.Publish(s.queue, jobJSON, 0, 0); err != nil {
		return "", fmt.Errorf("publish score job failed: %w", err)
	}

	s.logger.Infof(ctx, "[SubmitService] Batch submitted: batch_id=%s, request_id=%s, size=%d",
		batchID, requestID, len(invoices))

	return batchID, nil
}
