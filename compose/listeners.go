package compose

/*
 * listeners.go - 运行监听
 *
 * WithListeners 在被包装对象每次运行的开始、结束和失败时调用监听函数。
 * 监听函数同步执行，拿到的 *Run 在一次运行内是同一个对象。
 */

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eurora-labs/eurora-sub002/internal"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// Run 一次运行的记录。
type Run struct {
	ID        uuid.UUID
	Name      string
	Tags      []string
	Metadata  map[string]any
	Input     any
	Output    any
	Error     error
	StartTime time.Time
	EndTime   time.Time
}

// Listener 监听函数。
type Listener func(ctx context.Context, run *Run)

// Listeners 带监听的可执行对象。
type Listeners[I, O any] struct {
	*base[I, O]

	inner   Runnable[I, O]
	onStart Listener
	onEnd   Listener
	onError Listener
}

// WithListeners 为 r 添加监听，任一监听函数可以为 nil。
func WithListeners[I, O any](r Runnable[I, O], onStart, onEnd, onError Listener) *Listeners[I, O] {
	l := &Listeners[I, O]{
		base:    newBase[I, O]("RunnableListeners"),
		inner:   r,
		onStart: onStart,
		onEnd:   onEnd,
		onError: onError,
	}
	l.passive = true
	l.defaultName = r.Name

	l.invoke = l.invokeWith(r.Invoke)
	l.ainvoke = l.invokeWith(r.AInvoke)
	l.stream = l.streamWith(r.Stream)
	l.astream = l.streamWith(r.AStream)
	l.transform = l.transformWith(r.Transform)
	l.atransform = l.transformWith(r.ATransform)

	l.inputSchema = r.InputSchema
	l.outputSchema = r.OutputSchema
	l.graph = r.Graph
	l.configSpecs = r.ConfigSpecs

	l.complete()
	return l
}

// GetName 委托给被包装对象。
func (l *Listeners[I, O]) GetName(suffix, name string) string {
	return l.inner.GetName(suffix, name)
}

func (l *Listeners[I, O]) start(ctx context.Context, input any, cfg *Config) (*Run, *Config) {
	if cfg.RunID == uuid.Nil {
		cfg.RunID = uuid.New()
	}

	name := cfg.RunName
	if name == "" {
		name = l.inner.Name()
	}

	run := &Run{
		ID:        cfg.RunID,
		Name:      name,
		Tags:      append([]string(nil), cfg.Tags...),
		Metadata:  cfg.Metadata,
		Input:     input,
		StartTime: time.Now(),
	}
	if l.onStart != nil {
		l.onStart(ctx, run)
	}
	return run, cfg
}

func (l *Listeners[I, O]) finish(ctx context.Context, run *Run, output any, err error) {
	run.EndTime = time.Now()
	if err != nil {
		run.Error = err
		if l.onError != nil {
			l.onError(ctx, run)
		}
		return
	}

	run.Output = output
	if l.onEnd != nil {
		l.onEnd(ctx, run)
	}
}

func (l *Listeners[I, O]) invokeWith(call invokeFunc[I, O]) invokeFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (O, error) {
		run, cfg := l.start(ctx, input, cfg)
		out, err := call(ctx, input, cfg)
		l.finish(ctx, run, out, err)
		return out, err
	}
}

func (l *Listeners[I, O]) streamWith(call streamFunc[I, O]) streamFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
		run, cfg := l.start(ctx, input, cfg)
		sr, err := call(ctx, input, cfg)
		if err != nil {
			l.finish(ctx, run, nil, err)
			return nil, err
		}
		return l.watch(ctx, run, sr), nil
	}
}

func (l *Listeners[I, O]) transformWith(call transformFunc[I, O]) transformFunc[I, O] {
	return func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
		run, cfg := l.start(ctx, nil, cfg)
		sr, err := call(ctx, input, cfg)
		if err != nil {
			l.finish(ctx, run, nil, err)
			return nil, err
		}
		return l.watch(ctx, run, sr), nil
	}
}

// watch 输出流结束时结束运行。
func (l *Listeners[I, O]) watch(ctx context.Context, run *Run, sr *schema.StreamReader[O]) *schema.StreamReader[O] {
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
			l.finish(ctx, run, nil, failed)
			return nil
		}
		out, err := internal.ConcatItems(chunks)
		l.finish(ctx, run, out, err)
		return nil
	}
	return schema.StreamReaderWithHooks(sr, onChunk, onEOF)
}
