package compose

/*
 * fallbacks.go - 失败回退
 *
 * 依次尝试主对象和各个备用对象，返回第一个成功的结果；全部失败时返回最后一个错误。
 * 只有被判定为可处理的错误才会触发回退，其它错误直接返回。
 *
 * 设置 exception key 时，后续尝试的输入（必须是 map[string]any）会带上前一次的错误。
 * 流式调用只在取到第一块之前回退，之后的错误随流传递。
 */

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/eurora-labs/eurora-sub002/schema"
)

type fallbackOptions struct {
	handles      func(error) bool
	exceptionKey string
}

// FallbackOpt Fallbacks 选项。
type FallbackOpt func(*fallbackOptions)

// WithExceptionsToHandle 指定哪些错误触发回退，默认所有错误。
func WithExceptionsToHandle(handles func(error) bool) FallbackOpt {
	return func(o *fallbackOptions) {
		o.handles = handles
	}
}

// WithExceptionKey 把前一次的错误以 key 放入后续尝试的输入。
func WithExceptionKey(key string) FallbackOpt {
	return func(o *fallbackOptions) {
		o.exceptionKey = key
	}
}

// Fallbacks 带回退的可执行对象。
type Fallbacks[I, O any] struct {
	*base[I, O]

	runnable  Runnable[I, O]
	fallbacks []Runnable[I, O]
	opts      *fallbackOptions
}

// WithFallbacks 为 r 添加备用对象。
func WithFallbacks[I, O any](r Runnable[I, O], fallbacks []Runnable[I, O], opts ...FallbackOpt) *Fallbacks[I, O] {
	o := &fallbackOptions{}
	for _, opt := range opts {
		opt(o)
	}

	f := &Fallbacks[I, O]{
		base:      newBase[I, O]("RunnableWithFallbacks"),
		runnable:  r,
		fallbacks: append([]Runnable[I, O](nil), fallbacks...),
		opts:      o,
	}

	f.invoke = f.invokeWith(func(r Runnable[I, O]) invokeFunc[I, O] { return r.Invoke })
	f.ainvoke = f.invokeWith(func(r Runnable[I, O]) invokeFunc[I, O] { return r.AInvoke })
	f.stream = f.streamWith(func(r Runnable[I, O]) streamFunc[I, O] { return r.Stream })
	f.astream = f.streamWith(func(r Runnable[I, O]) streamFunc[I, O] { return r.AStream })

	f.inputSchema = r.InputSchema
	f.outputSchema = r.OutputSchema
	f.graph = r.Graph
	f.configSpecs = func() ([]ConfigurableFieldSpec, error) {
		var specs []ConfigurableFieldSpec
		for _, r := range f.runnables() {
			rs, err := r.ConfigSpecs()
			if err != nil {
				return nil, err
			}
			specs = append(specs, rs...)
		}
		return GetUniqueConfigSpecs(specs)
	}

	f.complete()
	return f
}

func (f *Fallbacks[I, O]) runnables() []Runnable[I, O] {
	return append([]Runnable[I, O]{f.runnable}, f.fallbacks...)
}

func (f *Fallbacks[I, O]) handles(err error) bool {
	if f.opts.handles == nil {
		return true
	}
	return f.opts.handles(err)
}

// inputFor 第一次尝试使用原始输入，之后按需带上前一次的错误。
func (f *Fallbacks[I, O]) inputFor(input I, lastErr error) (I, error) {
	if f.opts.exceptionKey == "" || lastErr == nil {
		return input, nil
	}

	m, ok := any(input).(map[string]any)
	if !ok {
		return input, ErrExceptionKeyInput
	}
	with := make(map[string]any, len(m)+1)
	for k, v := range m {
		with[k] = v
	}
	with[f.opts.exceptionKey] = lastErr

	converted, ok := any(with).(I)
	if !ok {
		return input, ErrExceptionKeyInput
	}
	return converted, nil
}

func fallbackTag(i int) string {
	if i == 0 {
		return "fallback:primary"
	}
	return fmt.Sprintf("fallback:%d", i)
}

func (f *Fallbacks[I, O]) invokeWith(method func(Runnable[I, O]) invokeFunc[I, O]) invokeFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (O, error) {
		var (
			zero    O
			lastErr error
		)
		for i, r := range f.runnables() {
			in, err := f.inputFor(input, lastErr)
			if err != nil {
				return zero, err
			}

			out, err := method(r)(ctx, in, childConfig(cfg, fallbackTag(i)))
			if err == nil {
				return out, nil
			}
			if !f.handles(err) {
				return zero, err
			}
			lastErr = err
		}
		return zero, lastErr
	}
}

// streamWith 取到第一块即认定该对象成功，把第一块放回流的开头继续输出。
func (f *Fallbacks[I, O]) streamWith(method func(Runnable[I, O]) streamFunc[I, O]) streamFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
		var lastErr error
		for i, r := range f.runnables() {
			in, err := f.inputFor(input, lastErr)
			if err != nil {
				return nil, err
			}

			sr, err := method(r)(ctx, in, childConfig(cfg, fallbackTag(i)))
			if err == nil {
				var first O
				first, err = sr.Recv()
				if errors.Is(err, io.EOF) {
					sr.Close()
					return schema.StreamReaderFromArray[O](nil), nil
				}
				if err == nil {
					return prependChunk(first, sr), nil
				}
				sr.Close()
			}

			if !f.handles(err) {
				return nil, err
			}
			lastErr = err
		}
		return nil, lastErr
	}
}

// prependChunk 在 sr 前补回已经读出的第一块。
func prependChunk[T any](first T, sr *schema.StreamReader[T]) *schema.StreamReader[T] {
	return schema.ChainStreamReaders(schema.StreamReaderFromArray([]T{first}), sr)
}
