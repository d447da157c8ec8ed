package compose

/*
 * run.go - 调用与生命周期回调的衔接
 *
 * 每次 Invoke / Stream / Transform 都以 OnChainStart 开始，以 OnChainEnd 或 OnChainError 结束。
 * 子调用拿到的配置挂在本次运行的子 Manager 下，因此父子关系由 ParentRunID 串起来。
 * 流式调用的结束事件在输出流读到 io.EOF 时触发，输出为全部块的合并结果。
 */

import (
	"context"

	"github.com/eurora-labs/eurora-sub002/callbacks"
	"github.com/eurora-labs/eurora-sub002/internal"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// startRun 开始一次运行，返回携带运行信息的 context、子调用使用的配置和回调句柄。
func (b *base[I, O]) startRun(ctx context.Context, cfg *Config, input any) (context.Context, *Config, *callbacks.RunManager) {
	mgr := cfg.Callbacks.WithTags(cfg.Tags...).WithMetadata(cfg.Metadata)

	name := cfg.RunName
	if name == "" {
		name = b.Name()
	}

	ctx, rm := mgr.OnChainStart(ctx, name, b.typeName, input, cfg.RunID)
	child := PatchConfig(cfg, PatchCallbacks(rm.Child("")))
	return withConfigContext(ctx, child), child, rm
}

func runInvoke[I, O any](b *base[I, O], ctx context.Context, input I, cfg *Config, fn invokeFunc[I, O]) (O, error) {
	cfg = ensureConfig(ctx, cfg)
	if b.passive {
		return fn(ctx, input, cfg)
	}

	ctx, child, rm := b.startRun(ctx, cfg, input)
	out, err := fn(ctx, input, child)
	if err != nil {
		rm.OnChainError(ctx, err)
		return out, err
	}
	rm.OnChainEnd(ctx, out)
	return out, nil
}

func runStream[I, O any](b *base[I, O], ctx context.Context, input I, cfg *Config, fn streamFunc[I, O]) (*schema.StreamReader[O], error) {
	cfg = ensureConfig(ctx, cfg)
	if b.passive {
		return fn(ctx, input, cfg)
	}

	ctx, child, rm := b.startRun(ctx, cfg, input)
	sr, err := fn(ctx, input, child)
	if err != nil {
		rm.OnChainError(ctx, err)
		return nil, err
	}
	return streamWithRunEnd(ctx, sr, rm), nil
}

func runTransform[I, O any](b *base[I, O], ctx context.Context, input *schema.StreamReader[I], cfg *Config,
	fn transformFunc[I, O]) (*schema.StreamReader[O], error) {

	cfg = ensureConfig(ctx, cfg)
	if b.passive {
		return fn(ctx, input, cfg)
	}

	// 输入是流，开始时尚不知道完整输入
	ctx, child, rm := b.startRun(ctx, cfg, nil)
	sr, err := fn(ctx, input, child)
	if err != nil {
		rm.OnChainError(ctx, err)
		return nil, err
	}
	return streamWithRunEnd(ctx, sr, rm), nil
}

// streamWithRunEnd 输出流结束时上报运行结果，出现过块错误时上报第一个错误。
func streamWithRunEnd[O any](ctx context.Context, sr *schema.StreamReader[O], rm *callbacks.RunManager) *schema.StreamReader[O] {
	var (
		chunks []O
		failed error
	)

	onChunk := func(chunk O, err error) {
		if err != nil {
			if failed == nil {
				failed = err
			}
			return
		}
		chunks = append(chunks, chunk)
	}

	onEOF := func() error {
		if failed != nil {
			rm.OnChainError(ctx, failed)
			return nil
		}
		out, err := internal.ConcatItems(chunks)
		if err != nil {
			rm.OnChainError(ctx, err)
			return nil
		}
		rm.OnChainEnd(ctx, out)
		return nil
	}

	return schema.StreamReaderWithHooks(sr, onChunk, onEOF)
}

// childConfig 为带标签的子调用派生配置，标签只作用于子调用这一级。
func childConfig(cfg *Config, tag string) *Config {
	return PatchConfig(cfg, PatchCallbacks(cfg.Callbacks.WithLocalTags(tag)))
}
