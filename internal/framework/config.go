package framework

import "time"

// Subscriber/Processor 缺省参数
const (
	defaultConcurrency  = 1
	defaultBufferSize   = 64
	defaultPullTimeout  = 3 * time.Second
	defaultTTR          = 30 * time.Second
	defaultErrorBackoff = time.Second
	defaultProcTimeout  = time.Minute
)

// SubscriberConfig 消息拉取配置
type SubscriberConfig struct {
	QueueName    string        // 评分任务队列名称
	Concurrency  int           // 并发拉取协程数
	Timeout      time.Duration // 单次拉取超时
	TTR          time.Duration // Time-To-Run，处理中消息的重投窗口
	Rate         time.Duration // 拉取间隔（0 表示不限速）
	ErrorBackoff time.Duration // 拉取出错后的退避时间
}

// Normalize 填充缺省值
func (c *SubscriberConfig) Normalize() {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultPullTimeout
	}
	if c.TTR <= 0 {
		c.TTR = defaultTTR
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = defaultErrorBackoff
	}
}

// ProcessorConfig 消息处理配置
type ProcessorConfig struct {
	Concurrency int           // 并发处理协程数
	BufferSize  int           // inputChan 缓冲区大小
	Timeout     time.Duration // 单条消息处理超时
}

// Normalize 填充缺省值
func (c *ProcessorConfig) Normalize() {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultProcTimeout
	}
}
