package compose

/*
 * convert.go - 类型擦除
 *
 * 组合结构内部以 Runnable[any, any] 保存异构的步骤，边界处再还原为具体类型。
 * 还原失败返回 unexpected input/output type 错误。
 */

import (
	"context"
	"reflect"

	"github.com/eino-contrib/jsonschema"

	"github.com/eurora-labs/eurora-sub002/graph"
	"github.com/eurora-labs/eurora-sub002/internal/generic"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// ToAny 擦除输出类型，用于 Parallel 的分支等需要统一输出类型的场景。
func ToAny[I, O any](r Runnable[I, O]) Runnable[I, any] {
	if same, ok := any(r).(Runnable[I, any]); ok {
		return same
	}
	return &converted[I, O, I, any]{
		inner: r,
		in:    identity[I],
		out:   toAny[O],
	}
}

// erase 同时擦除输入与输出类型。
func erase[I, O any](r Runnable[I, O]) Runnable[any, any] {
	if same, ok := any(r).(Runnable[any, any]); ok {
		return same
	}
	return &converted[I, O, any, any]{
		inner: r,
		in:    assertInput[I],
		out:   toAny[O],
	}
}

func identity[T any](v T) (T, error) { return v, nil }

func toAny[T any](v T) (any, error) { return v, nil }

func assertInput[T any](v any) (T, error) {
	if t, ok := assertValue[T](v); ok {
		return t, nil
	}
	var t T
	return t, newUnexpectedInputTypeErr(generic.TypeOf[T](), reflect.TypeOf(v))
}

func assertOutput[T any](v any) (T, error) {
	if t, ok := assertValue[T](v); ok {
		return t, nil
	}
	var t T
	return t, newUnexpectedOutputTypeErr(generic.TypeOf[T](), reflect.TypeOf(v))
}

// assertValue 类型断言。nil 经过 any 传递后丢失类型，目标为可空类型时还原为零值。
func assertValue[T any](v any) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}

	var t T
	if v != nil {
		return t, false
	}
	switch generic.TypeOf[T]().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return t, true
	default:
		return t, false
	}
}

// converted 在 Runnable[I, O] 外层做输入输出转换，不产生自己的运行事件。
type converted[I, O, NI, NO any] struct {
	inner Runnable[I, O]
	in    func(NI) (I, error)
	out   func(O) (NO, error)
}

func (c *converted[I, O, NI, NO]) invokeWith(ctx context.Context, input NI, cfg *Config,
	call func(context.Context, I, *Config) (O, error)) (NO, error) {

	var zero NO
	in, err := c.in(input)
	if err != nil {
		return zero, err
	}
	out, err := call(ctx, in, cfg)
	if err != nil {
		return zero, err
	}
	return c.out(out)
}

func (c *converted[I, O, NI, NO]) Invoke(ctx context.Context, input NI, cfg *Config) (NO, error) {
	return c.invokeWith(ctx, input, cfg, c.inner.Invoke)
}

func (c *converted[I, O, NI, NO]) AInvoke(ctx context.Context, input NI, cfg *Config) (NO, error) {
	return c.invokeWith(ctx, input, cfg, c.inner.AInvoke)
}

func (c *converted[I, O, NI, NO]) batchWith(ctx context.Context, inputs []NI, cfgs []*Config, returnExceptions bool,
	call func(context.Context, []I, []*Config, bool) ([]Result[O], error)) ([]Result[NO], error) {

	ins := make([]I, len(inputs))
	for i, input := range inputs {
		in, err := c.in(input)
		if err != nil {
			return nil, err
		}
		ins[i] = in
	}

	results, err := call(ctx, ins, cfgs, returnExceptions)
	if err != nil {
		return nil, err
	}

	outs := make([]Result[NO], len(results))
	for i, r := range results {
		if r.Err != nil {
			outs[i].Err = r.Err
			continue
		}
		outs[i].Value, outs[i].Err = c.out(r.Value)
		if outs[i].Err != nil && !returnExceptions {
			return nil, outs[i].Err
		}
	}
	return outs, nil
}

func (c *converted[I, O, NI, NO]) Batch(ctx context.Context, inputs []NI, cfgs []*Config, returnExceptions bool) ([]Result[NO], error) {
	return c.batchWith(ctx, inputs, cfgs, returnExceptions, c.inner.Batch)
}

func (c *converted[I, O, NI, NO]) ABatch(ctx context.Context, inputs []NI, cfgs []*Config, returnExceptions bool) ([]Result[NO], error) {
	return c.batchWith(ctx, inputs, cfgs, returnExceptions, c.inner.ABatch)
}

func (c *converted[I, O, NI, NO]) streamWith(ctx context.Context, input NI, cfg *Config,
	call func(context.Context, I, *Config) (*schema.StreamReader[O], error)) (*schema.StreamReader[NO], error) {

	in, err := c.in(input)
	if err != nil {
		return nil, err
	}
	sr, err := call(ctx, in, cfg)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderWithConvert(sr, c.out), nil
}

func (c *converted[I, O, NI, NO]) Stream(ctx context.Context, input NI, cfg *Config) (*schema.StreamReader[NO], error) {
	return c.streamWith(ctx, input, cfg, c.inner.Stream)
}

func (c *converted[I, O, NI, NO]) AStream(ctx context.Context, input NI, cfg *Config) (*schema.StreamReader[NO], error) {
	return c.streamWith(ctx, input, cfg, c.inner.AStream)
}

func (c *converted[I, O, NI, NO]) transformWith(ctx context.Context, input *schema.StreamReader[NI], cfg *Config,
	call func(context.Context, *schema.StreamReader[I], *Config) (*schema.StreamReader[O], error)) (*schema.StreamReader[NO], error) {

	sr, err := call(ctx, schema.StreamReaderWithConvert(input, c.in), cfg)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderWithConvert(sr, c.out), nil
}

func (c *converted[I, O, NI, NO]) Transform(ctx context.Context, input *schema.StreamReader[NI], cfg *Config) (*schema.StreamReader[NO], error) {
	return c.transformWith(ctx, input, cfg, c.inner.Transform)
}

func (c *converted[I, O, NI, NO]) ATransform(ctx context.Context, input *schema.StreamReader[NI], cfg *Config) (*schema.StreamReader[NO], error) {
	return c.transformWith(ctx, input, cfg, c.inner.ATransform)
}

func (c *converted[I, O, NI, NO]) Name() string { return c.inner.Name() }

func (c *converted[I, O, NI, NO]) GetName(suffix, name string) string {
	return c.inner.GetName(suffix, name)
}

func (c *converted[I, O, NI, NO]) InputSchema(cfg *Config) *jsonschema.Schema {
	return c.inner.InputSchema(cfg)
}

func (c *converted[I, O, NI, NO]) OutputSchema(cfg *Config) *jsonschema.Schema {
	return c.inner.OutputSchema(cfg)
}

func (c *converted[I, O, NI, NO]) Graph(cfg *Config) (*graph.Graph, error) {
	return c.inner.Graph(cfg)
}

func (c *converted[I, O, NI, NO]) ConfigSpecs() ([]ConfigurableFieldSpec, error) {
	return c.inner.ConfigSpecs()
}
