package compose

/*
 * runnable.go - 可执行对象接口与打包器
 *
 * 核心组件：
 *   - Runnable：统一的可执行对象接口，四种调用模式各有同步与异步两种形态
 *   - base：打包器，持有各模式的实现函数，缺失的模式由已有模式推导
 *
 * 推导规则：
 *   - Invoke  缺失时：由 Stream 或 Transform 合并输出得到
 *   - Stream  缺失时：由 Transform 包装单元素输入得到，否则为 Invoke 的单块流
 *   - Transform 缺失时：读完输入只保留最后一块，再对其调用 Stream
 *   - Batch   缺失时：逐个调用 Invoke
 *   - ABatch  缺失时：并发调用 AInvoke，并发数受第一个配置的 MaxConcurrency 限制
 *   - A* 缺失时：复用同步实现；ATransform 在只有 Stream 时于 goroutine 中消费输入
 *
 * 约定：
 *   - 同步形态不会为用户逻辑隐式开启 goroutine，A* 形态可以并发
 *   - 每次调用都会触发一次生命周期回调，纯委托的包装器除外
 *   - Stream / Transform 的错误可能在建立流时返回，也可能随块返回
 */

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/eino-contrib/jsonschema"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eurora-labs/eurora-sub002/graph"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// ====== 可执行对象接口 ======

// Result 批量调用中单个输入的结果。
type Result[O any] struct {
	Value O
	Err   error
}

// Runnable 可执行对象。
//
//	ping => pong                     Invoke / AInvoke
//	[ping...] => [pong...]           Batch / ABatch
//	ping => stream output            Stream / AStream
//	stream input => stream output    Transform / ATransform
type Runnable[I, O any] interface {
	Invoke(ctx context.Context, input I, cfg *Config) (O, error)
	AInvoke(ctx context.Context, input I, cfg *Config) (O, error)

	// Batch 批量调用。returnExceptions 为 false 时遇到第一个错误即返回该错误，
	// 为 true 时每个输入的错误保存在对应的 Result 中。
	Batch(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error)
	ABatch(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error)

	Stream(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error)
	AStream(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error)

	Transform(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error)
	ATransform(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error)

	// Name 可执行对象名称
	Name() string
	// GetName 以 name（为空时取 Name()）为基础拼接后缀，见 getName
	GetName(suffix, name string) string

	InputSchema(cfg *Config) *jsonschema.Schema
	OutputSchema(cfg *Config) *jsonschema.Schema
	Graph(cfg *Config) (*graph.Graph, error)
	ConfigSpecs() ([]ConfigurableFieldSpec, error)
}

// ====== 基础函数类型 ======

type invokeFunc[I, O any] func(ctx context.Context, input I, cfg *Config) (O, error)

type batchFunc[I, O any] func(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error)

type streamFunc[I, O any] func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error)

type transformFunc[I, O any] func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error)

// ====== 打包器 ======

// base 打包器。组合类型内嵌 *base 并填充需要的函数字段，再调用 complete 补齐其余模式。
// invoke、stream、transform 至少提供一个。
type base[I, O any] struct {
	// name 显式名称，优先于 defaultName
	name string
	// defaultName 未设置名称时的默认名称，可随结构变化（如 Parallel 的分支列表）
	defaultName func() string
	// typeName 回调中的运行种类
	typeName string
	// passive 纯委托包装器不产生自己的运行事件
	passive bool

	invoke     invokeFunc[I, O]
	ainvoke    invokeFunc[I, O]
	batch      batchFunc[I, O]
	abatch     batchFunc[I, O]
	stream     streamFunc[I, O]
	astream    streamFunc[I, O]
	transform  transformFunc[I, O]
	atransform transformFunc[I, O]

	inputSchema  func(cfg *Config) *jsonschema.Schema
	outputSchema func(cfg *Config) *jsonschema.Schema
	graph        func(cfg *Config) (*graph.Graph, error)
	configSpecs  func() ([]ConfigurableFieldSpec, error)
}

func newBase[I, O any](typeName string) *base[I, O] {
	return &base[I, O]{typeName: typeName}
}

// complete 补齐缺失的模式。必须在所有函数字段设置完成后调用一次。
func (b *base[I, O]) complete() *base[I, O] {
	if b.invoke == nil {
		switch {
		case b.stream != nil:
			b.invoke = invokeByStream(b.stream)
		case b.transform != nil:
			b.invoke = invokeByTransform(b.transform)
		default:
			panic("compose: runnable requires at least one of invoke, stream and transform")
		}
	}

	if b.stream == nil {
		if b.transform != nil {
			b.stream = streamByTransform(b.transform)
		} else {
			b.stream = streamByInvoke(b.invoke)
		}
	}

	explicitTransform := b.transform != nil
	if b.transform == nil {
		b.transform = transformByStream(b.stream)
	}

	explicitAInvoke := b.ainvoke != nil
	if b.ainvoke == nil {
		b.ainvoke = b.invoke
	}

	if b.astream == nil {
		switch {
		case b.atransform != nil:
			b.astream = streamByTransform(b.atransform)
		case explicitAInvoke:
			b.astream = streamByInvoke(b.ainvoke)
		default:
			b.astream = b.stream
		}
	}

	if b.atransform == nil {
		if explicitTransform {
			b.atransform = b.transform
		} else {
			b.atransform = atransformByStream(b.astream)
		}
	}

	if b.batch == nil {
		b.batch = batchByInvoke(b.Invoke)
	}
	if b.abatch == nil {
		b.abatch = abatchByInvoke(b.AInvoke)
	}

	return b
}

// ====== Runnable 实现 ======

func (b *base[I, O]) Invoke(ctx context.Context, input I, cfg *Config) (O, error) {
	return runInvoke(b, ctx, input, cfg, b.invoke)
}

func (b *base[I, O]) AInvoke(ctx context.Context, input I, cfg *Config) (O, error) {
	return runInvoke(b, ctx, input, cfg, b.ainvoke)
}

func (b *base[I, O]) Batch(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error) {
	return b.batch(ctx, inputs, cfgs, returnExceptions)
}

func (b *base[I, O]) ABatch(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error) {
	return b.abatch(ctx, inputs, cfgs, returnExceptions)
}

func (b *base[I, O]) Stream(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
	return runStream(b, ctx, input, cfg, b.stream)
}

func (b *base[I, O]) AStream(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
	return runStream(b, ctx, input, cfg, b.astream)
}

func (b *base[I, O]) Transform(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
	return runTransform(b, ctx, input, cfg, b.transform)
}

func (b *base[I, O]) ATransform(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
	return runTransform(b, ctx, input, cfg, b.atransform)
}

func (b *base[I, O]) Name() string {
	if b.name != "" {
		return b.name
	}
	if b.defaultName != nil {
		if n := b.defaultName(); n != "" {
			return n
		}
	}
	return b.typeName
}

func (b *base[I, O]) GetName(suffix, name string) string {
	if name == "" {
		name = b.Name()
	}
	return getName(name, suffix)
}

func (b *base[I, O]) InputSchema(cfg *Config) *jsonschema.Schema {
	if b.inputSchema != nil {
		return b.inputSchema(cfg)
	}
	return objectSchema(b.GetName("Input", ""))
}

func (b *base[I, O]) OutputSchema(cfg *Config) *jsonschema.Schema {
	if b.outputSchema != nil {
		return b.outputSchema(cfg)
	}
	return objectSchema(b.GetName("Output", ""))
}

func (b *base[I, O]) Graph(cfg *Config) (*graph.Graph, error) {
	if b.graph != nil {
		return b.graph(cfg)
	}
	return defaultGraph[I, O](b, cfg)
}

func (b *base[I, O]) ConfigSpecs() ([]ConfigurableFieldSpec, error) {
	if b.configSpecs != nil {
		return b.configSpecs()
	}
	return nil, nil
}

// ====== 名称与默认图 ======

// getName 名称以大写字母开头时直接拼接首字母大写的后缀，否则以下划线连接小写后缀。
//
//	getName("RunnableLambda", "input") ⏩ "RunnableLambdaInput"
//	getName("double", "Output")        ⏩ "double_output"
func getName(name, suffix string) string {
	if suffix == "" {
		return name
	}
	first, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(first) {
		return name + cases.Title(language.Und).String(suffix)
	}
	return name + "_" + strings.ToLower(suffix)
}

// defaultGraph 输入描述 → 可执行对象 → 输出描述。
func defaultGraph[I, O any](r Runnable[I, O], cfg *Config) (*graph.Graph, error) {
	g := graph.New()

	in, err := g.AddNode(graph.SchemaData(r.InputSchema(cfg)))
	if err != nil {
		return nil, err
	}
	node, err := g.AddNode(graph.RunnableData(r.GetName("", "")))
	if err != nil {
		return nil, err
	}
	out, err := g.AddNode(graph.SchemaData(r.OutputSchema(cfg)))
	if err != nil {
		return nil, err
	}

	if _, err = g.AddEdge(in, node, "", false); err != nil {
		return nil, err
	}
	if _, err = g.AddEdge(node, out, "", false); err != nil {
		return nil, err
	}
	return g, nil
}
