package compose

/*
 * branch.go - 条件分支
 *
 * 按顺序计算各分支的条件，执行第一个条件为真的分支；都不满足时执行默认分支。
 * 条件本身也是可执行对象，子调用标签为 condition:i，被选中的分支为 branch:i 或 branch:default。
 */

import (
	"context"
	"fmt"

	"github.com/eurora-labs/eurora-sub002/graph"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// BranchCase 一个条件分支。
type BranchCase[I, O any] struct {
	Condition Runnable[I, bool]
	Runnable  Runnable[I, O]
}

// NewBranchCase 构造条件分支。
func NewBranchCase[I, O any](condition Runnable[I, bool], r Runnable[I, O]) BranchCase[I, O] {
	return BranchCase[I, O]{Condition: condition, Runnable: r}
}

// Branch 条件分支。
type Branch[I, O any] struct {
	*base[I, O]

	cases       []BranchCase[I, O]
	defaultCase Runnable[I, O]
}

// NewBranch 创建条件分支。
//
//	b := compose.NewBranch(fallback,
//		compose.NewBranchCase(isNumber, parseNumber),
//		compose.NewBranchCase(isDate, parseDate))
func NewBranch[I, O any](defaultCase Runnable[I, O], cases ...BranchCase[I, O]) *Branch[I, O] {
	br := &Branch[I, O]{
		base:        newBase[I, O]("RunnableBranch"),
		cases:       append([]BranchCase[I, O](nil), cases...),
		defaultCase: defaultCase,
	}

	br.invoke = br.invokeWith(false)
	br.ainvoke = br.invokeWith(true)
	br.stream = br.streamWith(false)
	br.astream = br.streamWith(true)

	br.inputSchema = defaultCase.InputSchema
	br.outputSchema = defaultCase.OutputSchema
	br.graph = br.buildGraph
	br.configSpecs = func() ([]ConfigurableFieldSpec, error) {
		specs, err := defaultCase.ConfigSpecs()
		if err != nil {
			return nil, err
		}
		for _, c := range br.cases {
			for _, r := range []interface {
				ConfigSpecs() ([]ConfigurableFieldSpec, error)
			}{c.Condition, c.Runnable} {
				cs, err := r.ConfigSpecs()
				if err != nil {
					return nil, err
				}
				specs = append(specs, cs...)
			}
		}
		return GetUniqueConfigSpecs(specs)
	}

	br.complete()
	return br
}

// choose 返回被选中的分支及其子调用标签。
func (br *Branch[I, O]) choose(ctx context.Context, input I, cfg *Config, async bool) (Runnable[I, O], string, error) {
	for i, c := range br.cases {
		condCfg := childConfig(cfg, fmt.Sprintf("condition:%d", i+1))

		var (
			ok  bool
			err error
		)
		if async {
			ok, err = c.Condition.AInvoke(ctx, input, condCfg)
		} else {
			ok, err = c.Condition.Invoke(ctx, input, condCfg)
		}
		if err != nil {
			return nil, "", err
		}
		if ok {
			return c.Runnable, fmt.Sprintf("branch:%d", i+1), nil
		}
	}
	return br.defaultCase, "branch:default", nil
}

func (br *Branch[I, O]) invokeWith(async bool) invokeFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (O, error) {
		r, tag, err := br.choose(ctx, input, cfg, async)
		if err != nil {
			var o O
			return o, err
		}
		if async {
			return r.AInvoke(ctx, input, childConfig(cfg, tag))
		}
		return r.Invoke(ctx, input, childConfig(cfg, tag))
	}
}

func (br *Branch[I, O]) streamWith(async bool) streamFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
		r, tag, err := br.choose(ctx, input, cfg, async)
		if err != nil {
			return nil, err
		}
		if async {
			return r.AStream(ctx, input, childConfig(cfg, tag))
		}
		return r.Stream(ctx, input, childConfig(cfg, tag))
	}
}

// buildGraph 输入描述节点以条件边连到各分支，分支汇合到输出描述节点。
func (br *Branch[I, O]) buildGraph(cfg *Config) (*graph.Graph, error) {
	g := graph.New()

	in, err := g.AddNode(graph.SchemaData(br.InputSchema(cfg)))
	if err != nil {
		return nil, err
	}
	out, err := g.AddNode(graph.SchemaData(br.OutputSchema(cfg)))
	if err != nil {
		return nil, err
	}

	attach := func(r Runnable[I, O], label string) error {
		bg, err := r.Graph(cfg)
		if err != nil {
			return err
		}
		bg.TrimFirstNode()
		bg.TrimLastNode()

		if bg.Len() == 0 {
			_, err = g.AddEdge(in, out, label, true)
			return err
		}

		first, last := g.Extend(bg, "")
		if first == nil || last == nil {
			return fmt.Errorf("runnable %s has no first or last node", r.GetName("", ""))
		}
		if _, err = g.AddEdge(in, first, label, true); err != nil {
			return err
		}
		_, err = g.AddEdge(last, out, "", false)
		return err
	}

	for i, c := range br.cases {
		if err = attach(c.Runnable, fmt.Sprintf("case %d", i+1)); err != nil {
			return nil, err
		}
	}
	if err = attach(br.defaultCase, "default"); err != nil {
		return nil, err
	}
	return g, nil
}
