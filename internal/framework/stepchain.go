package framework

import (
	"context"
	"fmt"
)

// Step 处理链中的一个命名步骤
type Step struct {
	Name string
	Func ProcessorFunc
}

// StepChain 失败即停的顺序处理链
// Handler 用它把 准备/处理/汇总 串成一条流水线，错误信息带出出错的步骤名
type StepChain struct {
	steps []Step
}

// NewStepChain 创建处理链
func NewStepChain(steps ...Step) *StepChain {
	return &StepChain{steps: steps}
}

// Run 依次执行各步骤，任一步骤出错立即返回
func (c *StepChain) Run(ctx context.Context) error {
	for _, step := range c.steps {
		if err := step.Func(ctx); err != nil {
			return fmt.Errorf("step %s failed: %w", step.Name, err)
		}
	}
	return nil
}
