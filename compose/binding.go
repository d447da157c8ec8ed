package compose

/*
 * binding.go - 固定参数与配置
 *
 * Binding 包装一个可执行对象，每次调用时：
 *   - 把固定配置与调用方配置合并，固定配置在左，调用方配置在右
 *   - 把固定参数放进 context，被包装对象通过 BoundArgs 读取
 *
 * Binding 本身不产生运行事件，名称、描述与图都委托给被包装对象。
 */

import (
	"context"

	"github.com/eino-contrib/jsonschema"

	"github.com/eurora-labs/eurora-sub002/graph"
	"github.com/eurora-labs/eurora-sub002/internal/gmap"
	"github.com/eurora-labs/eurora-sub002/schema"
)

type ctxBoundArgsKey struct{}

// BoundArgs 返回外层 Binding 固定的参数，没有时返回 nil。
func BoundArgs(ctx context.Context) map[string]any {
	args, _ := ctx.Value(ctxBoundArgsKey{}).(map[string]any)
	return args
}

// Binding 固定了参数或配置的可执行对象。
type Binding[I, O any] struct {
	*base[I, O]

	inner  Runnable[I, O]
	args   map[string]any
	config *Config
}

// Bind 固定参数。对 Binding 再次绑定时合并参数，后绑定的优先。
func Bind[I, O any](r Runnable[I, O], args map[string]any) *Binding[I, O] {
	if b, ok := r.(*Binding[I, O]); ok {
		return newBinding(b.inner, gmap.Concat(b.args, args), b.config)
	}
	return newBinding(r, gmap.Clone(args), nil)
}

// WithConfig 固定配置。对 Binding 再次绑定时按顺序合并配置。
func WithConfig[I, O any](r Runnable[I, O], cfg *Config) *Binding[I, O] {
	if b, ok := r.(*Binding[I, O]); ok {
		return newBinding(b.inner, b.args, MergeConfigs(b.config, cfg))
	}
	return newBinding(r, nil, MergeConfigs(cfg))
}

func newBinding[I, O any](inner Runnable[I, O], args map[string]any, cfg *Config) *Binding[I, O] {
	b := &Binding[I, O]{
		base:   newBase[I, O]("RunnableBinding"),
		inner:  inner,
		args:   args,
		config: cfg,
	}
	b.passive = true
	b.defaultName = inner.Name

	b.invoke = func(ctx context.Context, input I, cfg *Config) (O, error) {
		return inner.Invoke(b.bindArgs(ctx), input, b.mergeConfig(cfg))
	}
	b.ainvoke = func(ctx context.Context, input I, cfg *Config) (O, error) {
		return inner.AInvoke(b.bindArgs(ctx), input, b.mergeConfig(cfg))
	}
	b.batch = b.batchWith(inner.Batch)
	b.abatch = b.batchWith(inner.ABatch)
	b.stream = func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
		return inner.Stream(b.bindArgs(ctx), input, b.mergeConfig(cfg))
	}
	b.astream = func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
		return inner.AStream(b.bindArgs(ctx), input, b.mergeConfig(cfg))
	}
	b.transform = func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
		return inner.Transform(b.bindArgs(ctx), input, b.mergeConfig(cfg))
	}
	b.atransform = func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
		return inner.ATransform(b.bindArgs(ctx), input, b.mergeConfig(cfg))
	}

	b.inputSchema = inner.InputSchema
	b.outputSchema = inner.OutputSchema
	b.graph = func(cfg *Config) (*graph.Graph, error) { return inner.Graph(b.mergeConfig(cfg)) }
	b.configSpecs = inner.ConfigSpecs

	b.complete()
	return b
}

// Inner 返回被包装的可执行对象。
func (b *Binding[I, O]) Inner() Runnable[I, O] {
	return b.inner
}

// GetName 委托给被包装对象。
func (b *Binding[I, O]) GetName(suffix, name string) string {
	return b.inner.GetName(suffix, name)
}

func (b *Binding[I, O]) bindArgs(ctx context.Context) context.Context {
	if len(b.args) == 0 {
		return ctx
	}
	return context.WithValue(ctx, ctxBoundArgsKey{}, gmap.Concat(BoundArgs(ctx), b.args))
}

func (b *Binding[I, O]) mergeConfig(cfg *Config) *Config {
	if b.config == nil {
		return cfg
	}
	return MergeConfigs(b.config, cfg)
}

func (b *Binding[I, O]) batchWith(call batchFunc[I, O]) batchFunc[I, O] {
	return func(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error) {
		if b.config != nil {
			configs, err := GetConfigList(cfgs, len(inputs))
			if err != nil {
				return nil, err
			}
			for i := range configs {
				configs[i] = b.mergeConfig(configs[i])
			}
			cfgs = configs
		}
		return call(b.bindArgs(ctx), inputs, cfgs, returnExceptions)
	}
}
