package model

// ActionTypeScore 批次评分任务的动作类型
const ActionTypeScore = "invoice_score"

// ScoreJob 批次评分任务消息（标准化）
// apiserver → worker 的消息传递
type ScoreJob struct {
	Payload ScoreJobPayload `json:"payload"`
}

// ScoreJobPayload Job 负载
type ScoreJobPayload struct {
	Data ScoreJobData `json:"data"`
}

// ScoreJobData Job 数据层
type ScoreJobData struct {
	// 元信息
	RequestID  string `json:"request_id"`  // 请求 ID（全链路追踪）
	ActionType string `json:"action_type"` // 固定值 "invoice_score"
	ID         string `json:"id"`          // 批次 ID

	// 业务数据
	Data ScoreBatchData `json:"data"`
}

// ScoreBatchData 批次评分业务数据
// 携带完整工作数据集，worker 评分时无需回查上游
type ScoreBatchData struct {
	BatchID  string    `json:"batch_id"`
	Invoices []Invoice `json:"invoices"`
}

// 回调状态常量
const (
	CallbackStatusSuccess = "SUCCESS"
	CallbackStatusPartial = "PARTIAL" // 部分发票落库失败
	CallbackStatusFailed  = "FAILED"
)

// BatchCallback 批次评分回调消息
// worker → 回调队列的消息传递
type BatchCallback struct {
	RequestID   string    `json:"request_id"`
	BatchID     string    `json:"batch_id"`
	Status      string    `json:"status"`
	Total       int       `json:"total"`
	HighRisk    int       `json:"high_risk"`
	MediumRisk  int       `json:"medium_risk"`
	LowRisk     int       `json:"low_risk"`
	Failed      int       `json:"failed"` // 落库失败的发票数
	Verdicts    []Verdict `json:"verdicts,omitempty"`
	Error       string    `json:"error,omitempty"`
	ProcessedAt int64     `json:"processed_at"`
}
