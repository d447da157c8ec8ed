package compose

/*
 * stream_adapt.go - 调用模式之间的推导
 *
 * 由已有的模式推导缺失模式，见 runnable.go 的推导规则。
 */

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/eurora-labs/eurora-sub002/internal"
	"github.com/eurora-labs/eurora-sub002/internal/safe"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// concatStreamReader 读完流并合并所有块，遇到块错误立即返回。
func concatStreamReader[T any](sr *schema.StreamReader[T]) (T, error) {
	defer sr.Close()

	var items []T
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var t T
			return t, err
		}
		items = append(items, chunk)
	}

	c, err := internal.ConcatItems(items)
	if err != nil {
		var t T
		return t, fmt.Errorf("concat stream reader fail: %w", err)
	}
	return c, nil
}

// lastOfStream 读完流并返回最后一块，ok 为 false 表示流为空。
func lastOfStream[T any](sr *schema.StreamReader[T]) (last T, ok bool, err error) {
	defer sr.Close()

	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return last, ok, nil
		}
		if err != nil {
			return last, false, err
		}
		last, ok = chunk, true
	}
}

func invokeByStream[I, O any](s streamFunc[I, O]) invokeFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (O, error) {
		sr, err := s(ctx, input, cfg)
		if err != nil {
			var o O
			return o, err
		}
		return concatStreamReader(sr)
	}
}

func invokeByTransform[I, O any](t transformFunc[I, O]) invokeFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (O, error) {
		sr, err := t(ctx, schema.StreamReaderFromArray([]I{input}), cfg)
		if err != nil {
			var o O
			return o, err
		}
		return concatStreamReader(sr)
	}
}

func streamByInvoke[I, O any](i invokeFunc[I, O]) streamFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
		out, err := i(ctx, input, cfg)
		if err != nil {
			return nil, err
		}
		return schema.StreamReaderFromArray([]O{out}), nil
	}
}

func streamByTransform[I, O any](t transformFunc[I, O]) streamFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
		return t(ctx, schema.StreamReaderFromArray([]I{input}), cfg)
	}
}

// transformByStream 只处理输入的最后一块，输入为空时输出也为空。
func transformByStream[I, O any](s streamFunc[I, O]) transformFunc[I, O] {
	return func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
		last, ok, err := lastOfStream(input)
		if err != nil {
			return nil, err
		}
		if !ok {
			return schema.StreamReaderFromArray[O](nil), nil
		}
		return s(ctx, last, cfg)
	}
}

// atransformByStream 与 transformByStream 相同，但立即返回，在 goroutine 中消费输入。
func atransformByStream[I, O any](s streamFunc[I, O]) transformFunc[I, O] {
	return func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
		sr, sw := schema.Pipe[O](1)

		go func() {
			defer func() {
				if panicErr := recover(); panicErr != nil {
					var o O
					sw.Send(o, safe.NewPanicErr(panicErr, debug.Stack()))
				}
				sw.Close()
			}()

			last, ok, err := lastOfStream(input)
			if err != nil {
				var o O
				sw.Send(o, err)
				return
			}
			if !ok {
				return
			}

			out, err := s(ctx, last, cfg)
			if err != nil {
				var o O
				sw.Send(o, err)
				return
			}
			defer out.Close()
			forward(out, sw)
		}()

		return sr, nil
	}
}

// forward 把 sr 的全部块转发给 sw，读取端关闭时提前返回。
func forward[T any](sr *schema.StreamReader[T], sw *schema.StreamWriter[T]) {
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if closed := sw.Send(chunk, err); closed {
			return
		}
	}
}
