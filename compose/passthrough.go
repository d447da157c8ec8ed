package compose

/*
 * passthrough.go - 透传、追加与挑选
 *
 * 核心组件：
 *   - Passthrough：原样输出输入，可附带一个副作用函数
 *   - Assign：在 Map 输入上追加由 Parallel 计算出的键
 *   - Pick：从 Map 输入中取出一个或多个键
 */

import (
	"context"
	"strings"

	"github.com/eino-contrib/jsonschema"

	"github.com/eurora-labs/eurora-sub002/graph"
	"github.com/eurora-labs/eurora-sub002/internal/gmap"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// ====== Passthrough ======

// PassthroughFunc 透传时的副作用函数，返回的错误使本次调用失败。
type PassthroughFunc[T any] func(ctx context.Context, input T, cfg *Config) error

type passthroughOptions[T any] struct {
	fn  PassthroughFunc[T]
	afn PassthroughFunc[T]
}

// PassthroughOpt Passthrough 选项。
type PassthroughOpt[T any] func(*passthroughOptions[T])

// WithPassthroughFunc 同步调用时执行的副作用，异步调用在未设置 WithPassthroughAFunc 时也使用它。
func WithPassthroughFunc[T any](fn PassthroughFunc[T]) PassthroughOpt[T] {
	return func(o *passthroughOptions[T]) {
		o.fn = fn
	}
}

// WithPassthroughAFunc 异步调用时执行的副作用。
func WithPassthroughAFunc[T any](fn PassthroughFunc[T]) PassthroughOpt[T] {
	return func(o *passthroughOptions[T]) {
		o.afn = fn
	}
}

// Passthrough 原样输出输入。
// Transform 逐块转发，输入读完后以最后一块调用一次副作用函数。
type Passthrough[T any] struct {
	*base[T, T]
}

// NewPassthrough 创建 Passthrough。
func NewPassthrough[T any](opts ...PassthroughOpt[T]) *Passthrough[T] {
	o := &passthroughOptions[T]{}
	for _, opt := range opts {
		opt(o)
	}
	afn := o.afn
	if afn == nil {
		afn = o.fn
	}

	p := &Passthrough[T]{base: newBase[T, T]("RunnablePassthrough")}
	p.invoke = passthroughInvoke(o.fn)
	p.ainvoke = passthroughInvoke(afn)
	p.transform = passthroughTransform(o.fn)
	p.atransform = passthroughTransform(afn)

	p.complete()
	return p
}

func passthroughInvoke[T any](fn PassthroughFunc[T]) invokeFunc[T, T] {
	return func(ctx context.Context, input T, cfg *Config) (T, error) {
		if fn != nil {
			if err := fn(ctx, input, cfg); err != nil {
				var t T
				return t, err
			}
		}
		return input, nil
	}
}

func passthroughTransform[T any](fn PassthroughFunc[T]) transformFunc[T, T] {
	return func(ctx context.Context, input *schema.StreamReader[T], cfg *Config) (*schema.StreamReader[T], error) {
		if fn == nil {
			return input, nil
		}

		var (
			last T
			seen bool
		)
		onChunk := func(chunk T, err error) {
			if err == nil {
				last, seen = chunk, true
			}
		}
		onEOF := func() error {
			if !seen {
				return nil
			}
			return fn(ctx, last, cfg)
		}
		return schema.StreamReaderWithHooks(input, onChunk, onEOF), nil
	}
}

// ====== Assign ======

// Assign 在 Map 输入上追加 mapper 的输出，同名键以 mapper 的输出为准。
type Assign struct {
	*base[map[string]any, map[string]any]

	mapper *Parallel[map[string]any]
}

// NewAssign 创建 Assign。
//
//	assign := compose.NewAssign(compose.NewParallel[map[string]any]().
//		Add("total", compose.ToAny(sum)))
func NewAssign(mapper *Parallel[map[string]any]) *Assign {
	a := &Assign{
		base:   newBase[map[string]any, map[string]any]("RunnableAssign"),
		mapper: mapper,
	}

	a.invoke = a.invokeWith(mapper.Invoke)
	a.ainvoke = a.invokeWith(mapper.AInvoke)
	a.stream = a.streamWith(mapper.Invoke)
	a.astream = a.streamWith(mapper.AInvoke)
	a.transform = a.transformWith(a.stream)
	a.atransform = a.transformWith(a.astream)

	a.inputSchema = mapper.InputSchema
	a.outputSchema = func(cfg *Config) *jsonschema.Schema {
		s := objectSchema("RunnableAssignOutput")
		s.Properties = mergeProperties(mapper.InputSchema(cfg), mapper.OutputSchema(cfg))
		return s
	}
	a.graph = a.buildGraph
	a.configSpecs = mapper.ConfigSpecs

	a.complete()
	return a
}

// Mapper 返回计算追加键的 Parallel。
func (a *Assign) Mapper() *Parallel[map[string]any] {
	return a.mapper
}

func (a *Assign) invokeWith(call invokeFunc[map[string]any, map[string]any]) invokeFunc[map[string]any, map[string]any] {
	return func(ctx context.Context, input map[string]any, cfg *Config) (map[string]any, error) {
		mapped, err := call(ctx, input, cfg)
		if err != nil {
			return nil, err
		}
		return gmap.Concat(input, mapped), nil
	}
}

// streamWith 依次输出两块：不属于 mapper 分支的输入键（为空时省略），以及 mapper 的输出。
// 第一块在 mapper 运行之前就可读取，mapper 失败时错误作为第二块返回。
func (a *Assign) streamWith(call invokeFunc[map[string]any, map[string]any]) streamFunc[map[string]any, map[string]any] {
	return func(ctx context.Context, input map[string]any, cfg *Config) (*schema.StreamReader[map[string]any], error) {
		filtered := make(map[string]any, len(input))
		for k, v := range input {
			if _, ok := a.mapper.branches[k]; ok {
				continue
			}
			filtered[k] = v
		}

		// mapper 在读取第二块时才运行
		mapped := schema.StreamReaderWithConvert(schema.StreamReaderFromArray([]map[string]any{input}),
			func(in map[string]any) (map[string]any, error) {
				return call(ctx, in, cfg)
			})

		if len(filtered) == 0 {
			return mapped, nil
		}
		return schema.ChainStreamReaders(schema.StreamReaderFromArray([]map[string]any{filtered}), mapped), nil
	}
}

// transformWith 先合并全部输入块，再按 Stream 输出。
func (a *Assign) transformWith(stream streamFunc[map[string]any, map[string]any]) transformFunc[map[string]any, map[string]any] {
	return func(ctx context.Context, input *schema.StreamReader[map[string]any], cfg *Config) (*schema.StreamReader[map[string]any], error) {
		merged, err := concatStreamReader(input)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = map[string]any{}
		}
		return stream(ctx, merged, cfg)
	}
}

// buildGraph mapper 的图上再加一个 Passthrough 节点，从输入直连到输出。
func (a *Assign) buildGraph(cfg *Config) (*graph.Graph, error) {
	g, err := a.mapper.Graph(cfg)
	if err != nil {
		return nil, err
	}

	in, out := g.FirstNode(), g.LastNode()
	if in == nil || out == nil {
		return g, nil
	}

	passthrough, err := g.AddNode(graph.RunnableData("Passthrough"))
	if err != nil {
		return nil, err
	}
	if _, err = g.AddEdge(in, passthrough, "", false); err != nil {
		return nil, err
	}
	if _, err = g.AddEdge(passthrough, out, "", false); err != nil {
		return nil, err
	}
	return g, nil
}

// ====== Pick ======

// Pick 从 Map 输入中取键。
//   - 单个键：输出该键的值
//   - 多个键：输出只包含存在的键的 Map
//
// 请求的键都不存在时 Invoke 与 Stream 返回 ErrNoMatchingKeys。Transform 逐块挑选，没有匹配键的块被跳过。
type Pick struct {
	*base[map[string]any, any]

	keys   []string
	single bool
}

// NewPick 取单个键。
func NewPick(key string) *Pick {
	return newPick([]string{key}, true)
}

// NewPickMulti 取多个键。
func NewPickMulti(keys ...string) *Pick {
	return newPick(append([]string(nil), keys...), false)
}

func newPick(keys []string, single bool) *Pick {
	p := &Pick{
		base:   newBase[map[string]any, any]("RunnablePick"),
		keys:   keys,
		single: single,
	}

	p.defaultName = func() string {
		return "RunnablePick<" + strings.Join(p.keys, ",") + ">"
	}
	p.invoke = func(_ context.Context, input map[string]any, _ *Config) (any, error) {
		return p.pick(input)
	}
	// Stream 对单个输入挑选，没有匹配键时报错，只有 Transform 跳过
	p.stream = streamByInvoke(p.invoke)
	p.transform = func(_ context.Context, input *schema.StreamReader[map[string]any], _ *Config) (*schema.StreamReader[any], error) {
		return schema.StreamReaderWithConvert(input, func(chunk map[string]any) (any, error) {
			out, err := p.pick(chunk)
			if err != nil {
				return nil, schema.ErrNoValue
			}
			return out, nil
		}), nil
	}

	p.complete()
	return p
}

// Keys 返回要挑选的键。
func (p *Pick) Keys() []string {
	return append([]string(nil), p.keys...)
}

func (p *Pick) pick(input map[string]any) (any, error) {
	if p.single {
		v, ok := input[p.keys[0]]
		if !ok {
			return nil, ErrNoMatchingKeys
		}
		return v, nil
	}

	picked := make(map[string]any, len(p.keys))
	for _, k := range p.keys {
		if v, ok := input[k]; ok {
			picked[k] = v
		}
	}
	if len(picked) == 0 {
		return nil, ErrNoMatchingKeys
	}
	return picked, nil
}

// PickFrom 在 r 之后接一个 Pick。
func PickFrom[I any](r Runnable[I, map[string]any], keys ...string) *Sequence[I, any] {
	if len(keys) == 1 {
		return Pipe[I, map[string]any, any](r, NewPick(keys[0]))
	}
	return Pipe[I, map[string]any, any](r, NewPickMulti(keys...))
}
