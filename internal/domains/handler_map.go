package domains

import (
	"iap/invcheck/internal/domains/common"
	"iap/invcheck/internal/domains/handlers/invoice/score"
	"iap/invcheck/internal/model"
)

// HandlerMap 路由表（ActionType → Handler 映射）
var HandlerMap = map[string]common.HandlerServProc{
	model.ActionTypeScore: score.NewScoreHandler,
}
