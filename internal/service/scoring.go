package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"iap/invcheck/internal/engine"
	"iap/invcheck/internal/model"
	"iap/invcheck/internal/store"
	"iap/invcheck/pkg/errorutil"
	"iap/invcheck/pkg/infra/redis"
	"iap/invcheck/pkg/logger"
)

// CallbackPublisher 回调消息发布接口（lmstfy 适配）
type CallbackPublisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) error
}

// Notifier 批次完成通知接口（redis pubsub 适配）
type Notifier interface {
	PublishBatchScored(ctx context.Context, channel string, notification *redis.BatchScoredNotification) error
}

// ScoringService 批次评分服务
// 职责：批内评分 → 逐票落库 → 发送回调与完成通知
type ScoringService struct {
	engine        *engine.Engine
	store         *store.InvoiceStore
	profiles      *VendorProfileCache
	publisher     CallbackPublisher
	callbackQueue string
	notifier      Notifier
	channel       string
	concurrency   int
	logger        logger.Logger
}

// NewScoringService 创建评分服务实例
func NewScoringService(
	eng *engine.Engine,
	s *store.InvoiceStore,
	profiles *VendorProfileCache,
	publisher CallbackPublisher,
	callbackQueue string,
	notifier Notifier,
	channel string,
	concurrency int,
	log logger.Logger,
) *ScoringService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ScoringService{
		engine:        eng,
		store:         s,
		profiles:      profiles,
		publisher:     publisher,
		callbackQueue: callbackQueue,
		notifier:      notifier,
		channel:       channel,
		concurrency:   concurrency,
		logger:        log,
	}
}

// ScoreBatch 对一个批次执行评分并持久化
// 批次是评分的统计边界：密度模型、均值方差、分位数都只在本批数据上拟合。
// 单票落库失败不中断批次，计入 failed 并反映到回调状态
func (s *ScoringService) ScoreBatch(ctx context.Context, requestID, batchID string, invoices []model.Invoice) (*model.BatchCallback, error) {
	startTime := time.Now()
	s.logger.Infof(ctx, "[ScoringService] Scoring batch %s, size: %d", batchID, len(invoices))

	sanitize(ctx, invoices, s.logger)

	// 评分前刷新一次画像，保证用到最新已落库的历史；失败退回当前快照
	if err := s.profiles.Refresh(ctx); err != nil {
		s.logger.Warnf(ctx, "[ScoringService] Profile refresh before batch failed: %v", err)
	}

	batch := engine.NewBatchContext(invoices, s.profiles.Snapshot())

	// 批内并发评分（只读上下文，结果按下标写入）
	verdicts := make([]*model.Verdict, len(invoices))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i := range invoices {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			verdicts[idx] = s.engine.ScoreInvoice(ctx, &invoices[idx], batch)
		}(i)
	}
	wg.Wait()

	// 逐票落库（单票事务），失败只计数
	callback := &model.BatchCallback{
		RequestID:   requestID,
		BatchID:     batchID,
		Total:       len(invoices),
		ProcessedAt: time.Now().Unix(),
	}
	for i := range invoices {
		verdict := verdicts[i]
		switch verdict.RiskLevel {
		case model.RiskLevelHigh:
			callback.HighRisk++
		case model.RiskLevelMedium:
			callback.MediumRisk++
		default:
			callback.LowRisk++
		}
		callback.Verdicts = append(callback.Verdicts, *verdict)

		if err := s.store.SaveScored(ctx, &invoices[i], verdict); err != nil {
			s.logger.Errorf(ctx, "[ScoringService] Save failed for %s: %v", invoices[i].InvoiceID, err)
			callback.Failed++
		}
	}

	switch {
	case callback.Failed == 0:
		callback.Status = model.CallbackStatusSuccess
	case callback.Failed < callback.Total:
		callback.Status = model.CallbackStatusPartial
	default:
		callback.Status = model.CallbackStatusFailed
		callback.Error = "all invoices failed to persist"
	}

	if err := s.sendCallback(ctx, callback); err != nil {
		return callback, err
	}

	s.notify(ctx, callback)

	s.logger.Infof(ctx, "[ScoringService] Batch %s scored: total=%d high=%d medium=%d low=%d failed=%d duration=%v",
		batchID, callback.Total, callback.HighRisk, callback.MediumRisk, callback.LowRisk,
		callback.Failed, time.Since(startTime))

	return callback, nil
}

// sendCallback 发送批次回调到回调队列
func (s *ScoringService) sendCallback(ctx context.Context, callback *model.BatchCallback) error {
	callbackJSON, err := json.Marshal(callback)
	if err != nil {
		return fmt.Errorf("marshal callback failed: %w", err)
	}

	// ttl=0 表示永不过期, delay=0 表示立即可用
	// 队列抖动可重试：落库已完成（幂等 upsert），重投只会重发回调
	if err := s.publisher.Publish(s.callbackQueue, callbackJSON, 0, 0); err != nil {
		return errorutil.RetriableWrap(err, "publish callback failed")
	}
	return nil
}

// notify 发布批次完成通知（best-effort，失败只记日志）
func (s *ScoringService) notify(ctx context.Context, callback *model.BatchCallback) {
	if s.notifier == nil || s.channel == "" {
		return
	}

	notification := &redis.BatchScoredNotification{
		BatchID:   callback.BatchID,
		RequestID: callback.RequestID,
		Total:     callback.Total,
		HighRisk:  callback.HighRisk,
		Status:    callback.Status,
		Timestamp: callback.ProcessedAt,
	}
	if err := s.notifier.PublishBatchScored(ctx, s.channel, notification); err != nil {
		s.logger.Warnf(ctx, "[ScoringService] notify failed for batch %s: %v", callback.BatchID, err)
	}
}

// sanitize 入口数据清洗
// 负金额视为抽取噪声，归零后由低金额规则自然命中
func sanitize(ctx context.Context, invoices []model.Invoice, log logger.Logger) {
	for i := range invoices {
		if invoices[i].TotalAmount < 0 {
			log.Warnf(ctx, "[ScoringService] Negative amount coerced to 0 for invoice %s (was %.2f)",
				invoices[i].InvoiceID, invoices[i].TotalAmount)
			invoices[i].TotalAmount = 0
		}
	}
}
