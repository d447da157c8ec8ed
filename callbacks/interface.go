package callbacks

import (
	"context"

	"github.com/google/uuid"
)

// RunInfo 一次运行的身份信息。
type RunInfo struct {
	// Name 运行名称，优先取配置中的 RunName，否则为可执行对象名称
	Name string
	// Type 可执行对象种类，如 RunnableSequence、RunnableParallel
	Type string
	// RunID 本次运行的唯一标识
	RunID uuid.UUID
	// ParentRunID 父运行标识，顶层运行为 uuid.Nil
	ParentRunID uuid.UUID
	Tags        []string
	Metadata    map[string]any
}

// CallbackInput 传给 OnStart 的输入。
type CallbackInput any

// CallbackOutput 传给 OnEnd 的输出。
type CallbackOutput any

// Handler 生命周期回调处理器。
type Handler interface {
	OnStart(ctx context.Context, info *RunInfo, input CallbackInput) context.Context
	OnEnd(ctx context.Context, info *RunInfo, output CallbackOutput) context.Context
	OnError(ctx context.Context, info *RunInfo, err error) context.Context
}

// CallbackTiming 回调时机。
type CallbackTiming uint8

const (
	TimingOnStart CallbackTiming = iota
	TimingOnEnd
	TimingOnError
)

// TimingChecker 可选接口，处理器实现后可声明不需要的时机，Manager 会跳过调用。
type TimingChecker interface {
	Needed(ctx context.Context, info *RunInfo, timing CallbackTiming) bool
}

// globalHandlers 对所有运行生效，先于 Manager 自身的处理器执行。
var globalHandlers []Handler

// AppendGlobalHandlers 追加全局处理器。非并发安全，只应在进程初始化时调用。
func AppendGlobalHandlers(handlers ...Handler) {
	globalHandlers = append(globalHandlers, handlers...)
}

func needed(ctx context.Context, h Handler, info *RunInfo, timing CallbackTiming) bool {
	if tc, ok := h.(TimingChecker); ok {
		return tc.Needed(ctx, info, timing)
	}
	return true
}
