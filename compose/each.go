package compose

import (
	"context"

	"github.com/eino-contrib/jsonschema"

	"github.com/eurora-labs/eurora-sub002/graph"
)

// Each 对列表中的每个元素调用同一个可执行对象，输出顺序与输入一致。
// 内部使用 Batch（AInvoke 时为 ABatch），任一元素失败则整体失败。
type Each[I, O any] struct {
	*base[[]I, []O]

	inner Runnable[I, O]
}

// NewEach 创建 Each。
func NewEach[I, O any](inner Runnable[I, O]) *Each[I, O] {
	e := &Each[I, O]{
		base:  newBase[[]I, []O]("RunnableEach"),
		inner: inner,
	}

	e.defaultName = func() string {
		return "RunnableEach<" + inner.GetName("", "") + ">"
	}
	e.invoke = e.invokeWith(inner.Batch)
	e.ainvoke = e.invokeWith(inner.ABatch)
	e.inputSchema = func(cfg *Config) *jsonschema.Schema {
		return &jsonschema.Schema{Title: e.GetName("Input", ""), Type: "array", Items: inner.InputSchema(cfg)}
	}
	e.outputSchema = func(cfg *Config) *jsonschema.Schema {
		return &jsonschema.Schema{Title: e.GetName("Output", ""), Type: "array", Items: inner.OutputSchema(cfg)}
	}
	e.graph = func(cfg *Config) (*graph.Graph, error) { return inner.Graph(cfg) }
	e.configSpecs = inner.ConfigSpecs

	e.complete()
	return e
}

// Map 等价于 NewEach。
func Map[I, O any](r Runnable[I, O]) *Each[I, O] {
	return NewEach(r)
}

// Inner 返回被映射的可执行对象。
func (e *Each[I, O]) Inner() Runnable[I, O] {
	return e.inner
}

func (e *Each[I, O]) invokeWith(batch batchFunc[I, O]) invokeFunc[[]I, []O] {
	return func(ctx context.Context, inputs []I, cfg *Config) ([]O, error) {
		outs := make([]O, 0, len(inputs))
		if len(inputs) == 0 {
			return outs, nil
		}

		cfgs := make([]*Config, len(inputs))
		for i := range cfgs {
			cfgs[i] = PatchConfig(cfg)
		}

		results, err := batch(ctx, inputs, cfgs, false)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			outs = append(outs, r.Value)
		}
		return outs, nil
	}
}
