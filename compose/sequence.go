package compose

/*
 * sequence.go - 顺序组合
 *
 * Sequence 把若干步骤首尾相接，前一步的输出是后一步的输入。
 * 组合时会展开已有的 Sequence，因此 Pipe(Pipe(a, b), c) 与 Pipe(a, Pipe(b, c)) 的步骤相同。
 *
 *   - Invoke：依次调用每一步，第 i 步（从 1 计数）的子调用带有标签 seq:step:i
 *   - Transform：把每一步的 Transform 串成一条流水线，首块输出不必等待全部输入
 *   - Graph：拼接各步骤的图，去掉相邻步骤之间重复的输入输出描述节点
 */

import (
	"context"
	"fmt"

	"github.com/eino-contrib/jsonschema"

	"github.com/eurora-labs/eurora-sub002/graph"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// Sequence 顺序组合，至少包含两个步骤。
type Sequence[I, O any] struct {
	*base[I, O]

	steps []Runnable[any, any]
}

// sequenceSteps 由 Sequence 实现，组合时用于展开。
type sequenceSteps interface {
	sequenceSteps() []Runnable[any, any]
}

func (s *Sequence[I, O]) sequenceSteps() []Runnable[any, any] {
	return s.steps
}

// Steps 返回步骤列表的副本。
func (s *Sequence[I, O]) Steps() []Runnable[any, any] {
	return append([]Runnable[any, any](nil), s.steps...)
}

// Pipe 把 first 的输出接到 last 的输入。
//
//	chain := compose.Pipe(compose.Pipe(parse, double), format)
func Pipe[I, M, O any](first Runnable[I, M], last Runnable[M, O]) *Sequence[I, O] {
	steps := append(flattenSteps(first), flattenSteps(last)...)
	return newSequence[I, O](steps)
}

// Pipe3 三个步骤的便捷形式。
func Pipe3[I, M1, M2, O any](a Runnable[I, M1], b Runnable[M1, M2], c Runnable[M2, O]) *Sequence[I, O] {
	return Pipe(Pipe(a, b), c)
}

func flattenSteps[I, O any](r Runnable[I, O]) []Runnable[any, any] {
	if seq, ok := any(r).(sequenceSteps); ok {
		return append([]Runnable[any, any](nil), seq.sequenceSteps()...)
	}
	return []Runnable[any, any]{erase(r)}
}

func newSequence[I, O any](steps []Runnable[any, any]) *Sequence[I, O] {
	s := &Sequence[I, O]{
		base:  newBase[I, O]("RunnableSequence"),
		steps: steps,
	}

	s.invoke = s.invokeWith(func(step Runnable[any, any]) invokeFunc[any, any] { return step.Invoke })
	s.ainvoke = s.invokeWith(func(step Runnable[any, any]) invokeFunc[any, any] { return step.AInvoke })
	s.transform = s.transformWith(func(step Runnable[any, any]) transformFunc[any, any] { return step.Transform })
	s.atransform = s.transformWith(func(step Runnable[any, any]) transformFunc[any, any] { return step.ATransform })

	s.inputSchema = func(cfg *Config) *jsonschema.Schema { return s.steps[0].InputSchema(cfg) }
	s.outputSchema = func(cfg *Config) *jsonschema.Schema { return s.steps[len(s.steps)-1].OutputSchema(cfg) }
	s.graph = s.buildGraph
	s.configSpecs = func() ([]ConfigurableFieldSpec, error) {
		var specs []ConfigurableFieldSpec
		for _, step := range s.steps {
			stepSpecs, err := step.ConfigSpecs()
			if err != nil {
				return nil, err
			}
			specs = append(specs, stepSpecs...)
		}
		return GetUniqueConfigSpecs(specs)
	}

	s.complete()
	return s
}

func stepTag(i int) string {
	return fmt.Sprintf("seq:step:%d", i+1)
}

func (s *Sequence[I, O]) invokeWith(method func(Runnable[any, any]) invokeFunc[any, any]) invokeFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (O, error) {
		var cur any = input
		for i, step := range s.steps {
			out, err := method(step)(ctx, cur, childConfig(cfg, stepTag(i)))
			if err != nil {
				var o O
				return o, err
			}
			cur = out
		}
		return assertOutput[O](cur)
	}
}

func (s *Sequence[I, O]) transformWith(method func(Runnable[any, any]) transformFunc[any, any]) transformFunc[I, O] {
	return func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
		cur := schema.StreamReaderWithConvert(input, toAny[I])
		for i, step := range s.steps {
			next, err := method(step)(ctx, cur, childConfig(cfg, stepTag(i)))
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return schema.StreamReaderWithConvert(cur, assertOutput[O]), nil
	}
}

// buildGraph 依次拼接步骤的图：非首步去掉输入描述节点，非末步去掉输出描述节点，
// 再把上一段的末节点连到这一段的首节点。
func (s *Sequence[I, O]) buildGraph(cfg *Config) (*graph.Graph, error) {
	g := graph.New()
	for i, step := range s.steps {
		currentLast := g.LastNode()

		sg, err := step.Graph(cfg)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			sg.TrimFirstNode()
		}
		if i < len(s.steps)-1 {
			sg.TrimLastNode()
		}

		first, _ := g.Extend(sg, "")
		if first == nil {
			return nil, fmt.Errorf("runnable %s has no first node", step.GetName("", ""))
		}
		if currentLast != nil {
			if _, err = g.AddEdge(currentLast, first, "", false); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}
