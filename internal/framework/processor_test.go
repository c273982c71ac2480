package framework

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"iap/invcheck/pkg/logger"
)

// stubSource 记录 ACK 调用
type stubSource struct {
	mu   sync.Mutex
	acks []string
}

func (s *stubSource) Consume(queue string, timeout, ttr time.Duration) (*Message, error) {
	return nil, nil
}

func (s *stubSource) Ack(queue string, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acks = append(s.acks, jobID)
	return nil
}

func (s *stubSource) acked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.acks))
	copy(out, s.acks)
	return out
}

type nopLogger struct{}

func (nopLogger) Debugf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Infof(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Warnf(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Errorf(ctx context.Context, format string, args ...interface{}) {}

func testProcessorConfig() *ProcessorConfig {
	return &ProcessorConfig{
		Concurrency: 2,
		BufferSize:  8,
		Timeout:     time.Second,
	}
}

func TestProcessorAckByAction(t *testing.T) {
	cases := []struct {
		name    string
		action  JobRespStatus
		wantAck bool
	}{
		{"success is acked", JobRespStatusSuccess, true},
		{"bury is acked", JobRespStatusBury, true},
		{"release is not acked", JobRespStatusRelease, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			source := &stubSource{}
			proc := func(ctx context.Context, msg *Message) *JobResp {
				return &JobResp{Action: tc.action}
			}

			p := NewProcessor(testProcessorConfig(), proc, source, nopLogger{})
			inputChan := make(chan *Message, 8)
			p.Start(context.Background(), inputChan)

			inputChan <- &Message{ID: "job-1", Queue: "q"}

			p.SignalShutdown()
			p.Wait()

			acked := source.acked()
			if tc.wantAck && (len(acked) != 1 || acked[0] != "job-1") {
				t.Errorf("acks = %v, want [job-1]", acked)
			}
			if !tc.wantAck && len(acked) != 0 {
				t.Errorf("acks = %v, want none", acked)
			}
		})
	}
}

func TestProcessorDrainsOnShutdown(t *testing.T) {
	source := &stubSource{}
	processed := make(chan string, 16)
	proc := func(ctx context.Context, msg *Message) *JobResp {
		processed <- msg.ID
		return &JobResp{Action: JobRespStatusSuccess}
	}

	p := NewProcessor(testProcessorConfig(), proc, source, nopLogger{})
	inputChan := make(chan *Message, 16)

	// 先灌入消息再启动并立即退出，Drain 模式应处理完全部积压
	for i := 0; i < 5; i++ {
		inputChan <- &Message{ID: "job", Queue: "q"}
	}

	p.Start(context.Background(), inputChan)
	p.SignalShutdown()
	p.Wait()

	if got := len(processed); got != 5 {
		t.Errorf("processed %d messages, want 5", got)
	}
}

func TestProcessorInjectsWorkerContext(t *testing.T) {
	source := &stubSource{}
	gotWorkerID := make(chan interface{}, 1)
	gotMessageID := make(chan interface{}, 1)
	proc := func(ctx context.Context, msg *Message) *JobResp {
		gotWorkerID <- ctx.Value(logger.CtxKeyWorkerID)
		gotMessageID <- ctx.Value(logger.CtxKeyMessageID)
		return &JobResp{Action: JobRespStatusSuccess}
	}

	cfg := testProcessorConfig()
	cfg.Concurrency = 1
	p := NewProcessor(cfg, proc, source, nopLogger{})
	inputChan := make(chan *Message, 1)
	inputChan <- &Message{ID: "job-ctx", Queue: "q"}

	p.Start(context.Background(), inputChan)
	p.SignalShutdown()
	p.Wait()

	if workerID, ok := (<-gotWorkerID).(int); !ok || workerID != 0 {
		t.Errorf("worker_id in context = %v, want typed int 0", workerID)
	}
	if messageID, ok := (<-gotMessageID).(string); !ok || messageID != "job-ctx" {
		t.Errorf("message_id in context = %v, want job-ctx", messageID)
	}
}

func TestStepChainStopsOnError(t *testing.T) {
	calls := 0
	ok := func(ctx context.Context) error { calls++; return nil }
	fail := func(ctx context.Context) error { calls++; return context.Canceled }

	chain := NewStepChain(
		Step{Name: "first", Func: ok},
		Step{Name: "second", Func: fail},
		Step{Name: "third", Func: ok},
	)
	err := chain.Run(context.Background())
	if err == nil {
		t.Fatal("Run should propagate step error")
	}
	if !strings.Contains(err.Error(), "step second") {
		t.Errorf("err = %v, want failing step name in message", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (stop at first error)", calls)
	}
}

func TestConfigNormalizeDefaults(t *testing.T) {
	pc := &ProcessorConfig{}
	pc.Normalize()
	if pc.Concurrency <= 0 || pc.BufferSize <= 0 || pc.Timeout <= 0 {
		t.Errorf("ProcessorConfig defaults not applied: %+v", pc)
	}

	sc := &SubscriberConfig{}
	sc.Normalize()
	if sc.Concurrency <= 0 || sc.Timeout <= 0 || sc.TTR <= 0 || sc.ErrorBackoff <= 0 {
		t.Errorf("SubscriberConfig defaults not applied: %+v", sc)
	}
}
