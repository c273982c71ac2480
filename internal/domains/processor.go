package domains

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"iap/invcheck/internal/domains/common"
	"iap/invcheck/internal/domains/common/job"
	"iap/invcheck/internal/domains/common/response"
	"iap/invcheck/internal/framework"
	"iap/invcheck/internal/service"
	"iap/invcheck/pkg/logger"
)

// GetProcess 返回核心处理函数（注入到 Processor）
func GetProcess(log logger.Logger, scoringService *service.ScoringService) framework.Proc {
	return func(ctx context.Context, msg *framework.Message) *framework.JobResp {
		startTime := time.Now()

		// 1. 解析 Job
		standardJob, meta, bizPayload, err := parseJob(ctx, msg, log)
		if err != nil {
			log.Errorf(ctx, "[GetProcess] parseJob failed: %v", err)
			return &framework.JobResp{Action: framework.JobRespStatusBury}
		}

		// 2. 注入 TraceID 和依赖到 Context
		ctx = context.WithValue(ctx, logger.CtxKeyTraceID, meta.RequestID)
		ctx = context.WithValue(ctx, logger.CtxKeyBatchID, meta.ID)
		ctx = context.WithValue(ctx, logger.CtxKeyAction, meta.ActionType)
		if scoringService != nil {
			ctx = context.WithValue(ctx, common.CtxKeyScoringService, scoringService)
		}

		log.Infof(ctx, "[GetProcess] Processing job: action_type=%s, request_id=%s, id=%s",
			meta.ActionType, meta.RequestID, meta.ID)

		// 3. 从 HandlerMap 获取 Handler
		handlerFunc, ok := HandlerMap[standardJob.Payload.Data.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] handler not found for action_type: %s", standardJob.Payload.Data.ActionType)
			return &framework.JobResp{Action: framework.JobRespStatusBury}
		}

		// 4. 调用 Handler（捕获 panic）
		var resp *framework.JobResp
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
					resp = &framework.JobResp{Action: framework.JobRespStatusBury}
				}
			}()

			handler, err := handlerFunc(ctx, meta, bizPayload)
			if err != nil {
				// 消息结构非法，重投无意义
				log.Errorf(ctx, "[GetProcess] handler creation failed: %v", err)
				resp = &framework.JobResp{Action: framework.JobRespStatusBury}
				return
			}

			handlerResp := handler.GetProcess()
			resp = doJobReport(ctx, handlerResp, log)
		}()

		duration := time.Since(startTime)
		log.Infof(ctx, "[GetProcess] Processing complete: action=%d, duration=%v", resp.Action, duration)

		return resp
	}
}

// parseJob 解析 Job
func parseJob(ctx context.Context, msg *framework.Message, log logger.Logger) (*job.Job, *job.Meta, interface{}, error) {
	var standardJob job.Job
	if err := json.Unmarshal(msg.Data, &standardJob); err != nil {
		return nil, nil, nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if standardJob.Payload == nil || standardJob.Payload.Data == nil {
		return nil, nil, nil, fmt.Errorf("invalid job structure: payload.data is nil")
	}

	data := standardJob.Payload.Data

	meta := &job.Meta{
		RequestID:  data.RequestID,
		ActionType: data.ActionType,
		ID:         data.ID,
	}

	// RequestID 为空则生成一个
	if meta.RequestID == "" {
		meta.RequestID = uuid.New().String()
	}

	bizPayload := data.Data

	log.Debugf(ctx, "[parseJob] Parsed: action_type=%s, request_id=%s, id=%s",
		meta.ActionType, meta.RequestID, meta.ID)

	return &standardJob, meta, bizPayload, nil
}

// doJobReport 生成 JobResp
// 可重试错误 Release（等待重投），不可重试错误 Bury，成功 ACK
func doJobReport(ctx context.Context, resp *response.Response, log logger.Logger) *framework.JobResp {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Errorf(ctx, "[doJobReport] marshal response failed: %v", err)
		return &framework.JobResp{Action: framework.JobRespStatusBury}
	}

	if resp.Error != nil {
		if resp.Error.Retryable {
			return &framework.JobResp{Action: framework.JobRespStatusRelease, Data: data}
		}
		return &framework.JobResp{Action: framework.JobRespStatusBury, Data: data}
	}

	return &framework.JobResp{Action: framework.JobRespStatusSuccess, Data: data}
}
