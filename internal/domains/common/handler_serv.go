package common

import (
	"context"

	"iap/invcheck/internal/domains/common/job"
	"iap/invcheck/internal/domains/common/response"
)

// CtxKey 依赖注入的 Context Key 类型
type CtxKey string

// CtxKeyScoringService 评分服务注入 Key
const CtxKeyScoringService CtxKey = "scoring_service"

// HandlerServProc Handler 构造函数类型
type HandlerServProc func(ctx context.Context, meta *job.Meta, payload interface{}) (HandlerServ, error)

// HandlerServ Handler 接口
type HandlerServ interface {
	GetProcess() *response.Response
}
