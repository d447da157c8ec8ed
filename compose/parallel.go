package compose

/*
 * parallel.go - 并行组合
 *
 * Parallel 把同一个输入交给多个命名分支，输出为 分支名 => 分支输出 的 Map。
 *
 *   - Invoke：按声明顺序依次调用各分支
 *   - AInvoke：各分支并发执行，任一分支失败即取消其余分支并返回该错误
 *   - Transform：输入流复制给每个分支，输出块形如 {分支名: 块}，各分支的块交错到达
 *
 * 子调用带有标签 map:key:<分支名>。
 */

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/eino-contrib/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"

	"github.com/eurora-labs/eurora-sub002/graph"
	"github.com/eurora-labs/eurora-sub002/internal/safe"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// Parallel 并行组合。
type Parallel[I any] struct {
	*base[I, map[string]any]

	keys     []string
	branches map[string]Runnable[I, any]

	// err 构造期间的错误（如重复分支），每次调用都会返回
	err error
}

// NewParallel 创建空的并行组合，通过 Add 添加分支。
//
//	p := compose.NewParallel[string]().
//		Add("upper", compose.ToAny(upper)).
//		Add("length", compose.ToAny(length))
func NewParallel[I any]() *Parallel[I] {
	p := &Parallel[I]{
		base:     newBase[I, map[string]any]("RunnableParallel"),
		branches: make(map[string]Runnable[I, any]),
	}

	p.defaultName = func() string {
		return "RunnableParallel<" + strings.Join(p.keys, ",") + ">"
	}
	p.invoke = p.invokeSequential
	p.ainvoke = p.invokeConcurrent
	p.transform = p.transformWith(func(r Runnable[I, any]) transformFunc[I, any] { return r.Transform })
	p.atransform = p.transformWith(func(r Runnable[I, any]) transformFunc[I, any] { return r.ATransform })
	p.inputSchema = p.buildInputSchema
	p.outputSchema = p.buildOutputSchema
	p.graph = p.buildGraph
	p.configSpecs = func() ([]ConfigurableFieldSpec, error) {
		var specs []ConfigurableFieldSpec
		for _, key := range p.keys {
			branchSpecs, err := p.branches[key].ConfigSpecs()
			if err != nil {
				return nil, err
			}
			specs = append(specs, branchSpecs...)
		}
		return GetUniqueConfigSpecs(specs)
	}

	p.complete()
	return p
}

// Add 添加分支。分支名重复时记录错误，之后的每次调用都返回 ErrDuplicateBranch。
func (p *Parallel[I]) Add(key string, r Runnable[I, any]) *Parallel[I] {
	if p.err != nil {
		return p
	}
	if r == nil {
		p.err = fmt.Errorf("parallel branch %q: %w", key, ErrNoRunnable)
		return p
	}
	if _, ok := p.branches[key]; ok {
		p.err = fmt.Errorf("%w: %s", ErrDuplicateBranch, key)
		return p
	}

	p.keys = append(p.keys, key)
	p.branches[key] = r
	return p
}

// Keys 按声明顺序返回分支名。
func (p *Parallel[I]) Keys() []string {
	return append([]string(nil), p.keys...)
}

func branchTag(key string) string {
	return "map:key:" + key
}

func (p *Parallel[I]) invokeSequential(ctx context.Context, input I, cfg *Config) (map[string]any, error) {
	if p.err != nil {
		return nil, p.err
	}

	out := make(map[string]any, len(p.keys))
	for _, key := range p.keys {
		v, err := p.branches[key].Invoke(ctx, input, childConfig(cfg, branchTag(key)))
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (p *Parallel[I]) invokeConcurrent(ctx context.Context, input I, cfg *Config) (map[string]any, error) {
	if p.err != nil {
		return nil, p.err
	}

	var (
		mu  sync.Mutex
		out = make(map[string]any, len(p.keys))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	for _, key := range p.keys {
		key := key
		eg.Go(func() error {
			return safe.Try(func() error {
				v, err := p.branches[key].AInvoke(egCtx, input, childConfig(cfg, branchTag(key)))
				if err != nil {
					return err
				}
				mu.Lock()
				out[key] = v
				mu.Unlock()
				return nil
			})
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parallel[I]) transformWith(method func(Runnable[I, any]) transformFunc[I, any]) transformFunc[I, map[string]any] {
	return func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[map[string]any], error) {
		if p.err != nil {
			return nil, p.err
		}
		if len(p.keys) == 0 {
			input.Close()
			return schema.StreamReaderFromArray([]map[string]any{{}}), nil
		}

		copies := input.Copy(len(p.keys))
		outs := make([]*schema.StreamReader[map[string]any], 0, len(p.keys))
		for i, key := range p.keys {
			key := key
			sr, err := method(p.branches[key])(ctx, copies[i], childConfig(cfg, branchTag(key)))
			if err != nil {
				for _, c := range copies[i+1:] {
					c.Close()
				}
				for _, o := range outs {
					o.Close()
				}
				return nil, err
			}
			outs = append(outs, schema.StreamReaderWithConvert(sr, func(chunk any) (map[string]any, error) {
				return map[string]any{key: chunk}, nil
			}))
		}
		return schema.MergeStreamReaders(outs), nil
	}
}

// buildInputSchema 所有分支输入描述的属性并集，没有属性时退化为默认描述。
func (p *Parallel[I]) buildInputSchema(cfg *Config) *jsonschema.Schema {
	var inputs []*jsonschema.Schema
	for _, key := range p.keys {
		inputs = append(inputs, p.branches[key].InputSchema(cfg))
	}

	props := mergeProperties(inputs...)
	if props.Len() == 0 {
		if len(inputs) > 0 {
			return inputs[0]
		}
		return objectSchema(p.GetName("Input", ""))
	}
	s := objectSchema(p.GetName("Input", ""))
	s.Properties = props
	return s
}

// buildOutputSchema 每个分支名对应该分支的输出描述。
func (p *Parallel[I]) buildOutputSchema(cfg *Config) *jsonschema.Schema {
	props := orderedmap.New[string, *jsonschema.Schema]()
	for _, key := range p.keys {
		props.Set(key, p.branches[key].OutputSchema(cfg))
	}
	s := objectSchema(p.GetName("Output", ""))
	s.Properties = props
	return s
}

// buildGraph 共享的输入、输出描述节点之间并列各分支的图。
func (p *Parallel[I]) buildGraph(cfg *Config) (*graph.Graph, error) {
	g := graph.New()

	in, err := g.AddNode(graph.SchemaData(p.InputSchema(cfg)))
	if err != nil {
		return nil, err
	}
	out, err := g.AddNode(graph.SchemaData(p.OutputSchema(cfg)))
	if err != nil {
		return nil, err
	}

	for _, key := range p.keys {
		bg, err := p.branches[key].Graph(cfg)
		if err != nil {
			return nil, err
		}
		bg.TrimFirstNode()
		bg.TrimLastNode()

		if bg.Len() == 0 {
			if _, err = g.AddEdge(in, out, "", false); err != nil {
				return nil, err
			}
			continue
		}

		first, last := g.Extend(bg, key)
		if first == nil || last == nil {
			return nil, fmt.Errorf("runnable %s has no first or last node", p.branches[key].GetName("", ""))
		}
		if _, err = g.AddEdge(in, first, "", false); err != nil {
			return nil, err
		}
		if _, err = g.AddEdge(last, out, "", false); err != nil {
			return nil, err
		}
	}
	return g, nil
}
