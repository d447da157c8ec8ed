package compose

/*
 * lambda.go - 由普通函数构造可执行对象
 *
 * 三种构造方式对应函数提供的能力：
 *   - InvokableLambda：输入 => 输出
 *   - StreamableLambda：输入 => 输出流
 *   - TransformableLambda：输入流 => 输出流
 *
 * 其余模式由打包器推导。函数可通过 ConfigFromContext 取得本次调用的配置，
 * 在函数内部调用其它可执行对象时配置会自动继承。
 */

import (
	"context"
	"reflect"

	"github.com/eino-contrib/jsonschema"

	"github.com/eurora-labs/eurora-sub002/internal/generic"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// InvokeFunc 输入 => 输出。
type InvokeFunc[I, O any] func(ctx context.Context, input I) (output O, err error)

// StreamFunc 输入 => 输出流。
type StreamFunc[I, O any] func(ctx context.Context, input I) (output *schema.StreamReader[O], err error)

// TransformFunc 输入流 => 输出流。
type TransformFunc[I, O any] func(ctx context.Context, input *schema.StreamReader[I]) (output *schema.StreamReader[O], err error)

type lambdaOptions struct {
	name         string
	inputSchema  *jsonschema.Schema
	outputSchema *jsonschema.Schema
}

// LambdaOpt Lambda 选项。
type LambdaOpt func(*lambdaOptions)

// WithLambdaName 指定名称，默认取函数名，匿名函数为 RunnableLambda。
func WithLambdaName(name string) LambdaOpt {
	return func(o *lambdaOptions) {
		o.name = name
	}
}

// WithLambdaInputSchema 指定输入描述。
func WithLambdaInputSchema(s *jsonschema.Schema) LambdaOpt {
	return func(o *lambdaOptions) {
		o.inputSchema = s
	}
}

// WithLambdaOutputSchema 指定输出描述。
func WithLambdaOutputSchema(s *jsonschema.Schema) LambdaOpt {
	return func(o *lambdaOptions) {
		o.outputSchema = s
	}
}

// Lambda 函数包装的可执行对象。
type Lambda[I, O any] struct {
	*base[I, O]
}

// InvokableLambda 由同步函数构造。
//
//	double := compose.InvokableLambda(func(ctx context.Context, in int) (int, error) {
//		return in * 2, nil
//	})
func InvokableLambda[I, O any](fn InvokeFunc[I, O], opts ...LambdaOpt) *Lambda[I, O] {
	return newLambda(reflect.ValueOf(fn), opts, func(b *base[I, O]) {
		b.invoke = func(ctx context.Context, input I, _ *Config) (O, error) {
			return fn(ctx, input)
		}
	})
}

// AsyncLambda 同时提供同步与异步实现，AInvoke / AStream 使用 afn。
func AsyncLambda[I, O any](fn, afn InvokeFunc[I, O], opts ...LambdaOpt) *Lambda[I, O] {
	return newLambda(reflect.ValueOf(fn), opts, func(b *base[I, O]) {
		b.invoke = func(ctx context.Context, input I, _ *Config) (O, error) {
			return fn(ctx, input)
		}
		b.ainvoke = func(ctx context.Context, input I, _ *Config) (O, error) {
			return afn(ctx, input)
		}
	})
}

// StreamableLambda 由流式输出函数构造，Invoke 合并全部输出块。
func StreamableLambda[I, O any](fn StreamFunc[I, O], opts ...LambdaOpt) *Lambda[I, O] {
	return newLambda(reflect.ValueOf(fn), opts, func(b *base[I, O]) {
		b.stream = func(ctx context.Context, input I, _ *Config) (*schema.StreamReader[O], error) {
			return fn(ctx, input)
		}
	})
}

// TransformableLambda 由流转换函数构造。
func TransformableLambda[I, O any](fn TransformFunc[I, O], opts ...LambdaOpt) *Lambda[I, O] {
	return newLambda(reflect.ValueOf(fn), opts, func(b *base[I, O]) {
		b.transform = func(ctx context.Context, input *schema.StreamReader[I], _ *Config) (*schema.StreamReader[O], error) {
			return fn(ctx, input)
		}
	})
}

func newLambda[I, O any](fn reflect.Value, opts []LambdaOpt, setup func(b *base[I, O])) *Lambda[I, O] {
	o := &lambdaOptions{}
	for _, opt := range opts {
		opt(o)
	}

	b := newBase[I, O]("RunnableLambda")
	b.name = o.name
	if b.name == "" {
		b.name = generic.ParseTypeName(fn)
	}
	if o.inputSchema != nil {
		b.inputSchema = func(*Config) *jsonschema.Schema { return o.inputSchema }
	}
	if o.outputSchema != nil {
		b.outputSchema = func(*Config) *jsonschema.Schema { return o.outputSchema }
	}

	setup(b)
	return &Lambda[I, O]{base: b.complete()}
}
