package compose

/*
 * error.go - 编排层错误定义
 *
 * 错误以哨兵值暴露，调用方用 errors.Is 判断类别，具体上下文由 fmt.Errorf 的 %w 包装携带。
 */

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrConfigListLength 批量调用时配置列表与输入数量不一致。
	ErrConfigListLength = errors.New("config list length does not match inputs")

	// ErrUnknownAlternative 选择了未注册的备选项。
	ErrUnknownAlternative = errors.New("Unknown alternative")

	// ErrUnknownOption 可配置选项字段的取值不在选项表中。
	ErrUnknownOption = errors.New("unknown configurable option")

	// ErrNoMatchingKeys Pick 的输入不包含任何请求的键。
	ErrNoMatchingKeys = errors.New("No matching keys found in input")

	// ErrConflictingConfigSpecs 同一标识的配置描述互相冲突。
	ErrConflictingConfigSpecs = errors.New("RunnableSequence contains conflicting config specs")

	// ErrDuplicateBranch Parallel 中重复注册了同名分支。
	ErrDuplicateBranch = errors.New("duplicate branch key")

	// ErrExceptionKeyInput 设置了 exception key 的 Fallbacks 只接受 map[string]any 输入。
	ErrExceptionKeyInput = errors.New("exception key requires map[string]any input")

	// ErrNoRunnable 组合时提供了 nil 可执行对象。
	ErrNoRunnable = errors.New("runnable is nil")
)

// newUnexpectedInputTypeErr 类型擦除后的输入无法还原为期望类型。
func newUnexpectedInputTypeErr(expected reflect.Type, got reflect.Type) error {
	return fmt.Errorf("unexpected input type. expected: %v, got: %v", expected, got)
}

// newUnexpectedOutputTypeErr 类型擦除后的输出无法还原为期望类型。
func newUnexpectedOutputTypeErr(expected reflect.Type, got reflect.Type) error {
	return fmt.Errorf("unexpected output type. expected: %v, got: %v", expected, got)
}
