package compose

/*
 * configurable.go - 运行时可配置的包装器
 *
 * 核心组件：
 *   - ConfigurableFields：按配置中的字段取值重新构造默认对象
 *   - ConfigurableAlternatives：按配置中的选择项在默认对象与备选对象之间切换
 *
 * 两者都不产生自己的运行事件，每次调用先 prepare 得到本次实际执行的对象与配置，再委托给它。
 * 批量调用时如果所有输入都落到默认对象上，整批交给默认对象的 Batch / ABatch。
 */

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/eino-contrib/jsonschema"

	"github.com/eurora-labs/eurora-sub002/graph"
	"github.com/eurora-labs/eurora-sub002/internal/gmap"
	"github.com/eurora-labs/eurora-sub002/schema"
)

// DefaultAlternativeKey 默认对象在选择项中的键。
const DefaultAlternativeKey = "default"

type configurableOptions struct {
	defaultKey string
	prefixKeys bool
	config     *Config
}

// ConfigurableOpt 可配置包装器的选项。
type ConfigurableOpt func(*configurableOptions)

// WithDefaultKey 默认对象的选择键，仅对 ConfigurableAlternatives 生效。
func WithDefaultKey(key string) ConfigurableOpt {
	return func(o *configurableOptions) {
		o.defaultKey = key
	}
}

// WithPrefixKeys 备选对象的配置标识加上 {which}=={key}/ 前缀，仅对 ConfigurableAlternatives 生效。
func WithPrefixKeys(prefix bool) ConfigurableOpt {
	return func(o *configurableOptions) {
		o.prefixKeys = prefix
	}
}

// WithStoredConfig 包装器自带的配置，调用时与调用方配置合并，调用方优先。
func WithStoredConfig(cfg *Config) ConfigurableOpt {
	return func(o *configurableOptions) {
		o.config = cfg
	}
}

func newConfigurableOptions(opts []ConfigurableOpt) *configurableOptions {
	o := &configurableOptions{defaultKey: DefaultAlternativeKey}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// prepareFunc 返回本次实际执行的对象、交给它的配置，以及是否为默认对象。
type prepareFunc[I, O any] func(cfg *Config) (r Runnable[I, O], prepared *Config, isDefault bool, err error)

// ====== 公共委托 ======

// wireConfigurable 以 prepare 填充 base 的全部模式。
func wireConfigurable[I, O any](b *base[I, O], def Runnable[I, O], prepare prepareFunc[I, O]) {
	b.passive = true
	b.defaultName = def.Name

	invokeWith := func(async bool) invokeFunc[I, O] {
		return func(ctx context.Context, input I, cfg *Config) (O, error) {
			r, prepared, _, err := prepare(cfg)
			if err != nil {
				var o O
				return o, err
			}
			if async {
				return r.AInvoke(ctx, input, prepared)
			}
			return r.Invoke(ctx, input, prepared)
		}
	}
	streamWith := func(async bool) streamFunc[I, O] {
		return func(ctx context.Context, input I, cfg *Config) (*schema.StreamReader[O], error) {
			r, prepared, _, err := prepare(cfg)
			if err != nil {
				return nil, err
			}
			if async {
				return r.AStream(ctx, input, prepared)
			}
			return r.Stream(ctx, input, prepared)
		}
	}
	transformWith := func(async bool) transformFunc[I, O] {
		return func(ctx context.Context, input *schema.StreamReader[I], cfg *Config) (*schema.StreamReader[O], error) {
			r, prepared, _, err := prepare(cfg)
			if err != nil {
				input.Close()
				return nil, err
			}
			if async {
				return r.ATransform(ctx, input, prepared)
			}
			return r.Transform(ctx, input, prepared)
		}
	}

	b.invoke = invokeWith(false)
	b.ainvoke = invokeWith(true)
	b.stream = streamWith(false)
	b.astream = streamWith(true)
	b.transform = transformWith(false)
	b.atransform = transformWith(true)
	b.batch = configurableBatch(def, prepare, false)
	b.abatch = configurableBatch(def, prepare, true)

	b.inputSchema = func(cfg *Config) *jsonschema.Schema {
		r, prepared, _, err := prepare(cfg)
		if err != nil {
			return def.InputSchema(cfg)
		}
		return r.InputSchema(prepared)
	}
	b.outputSchema = func(cfg *Config) *jsonschema.Schema {
		r, prepared, _, err := prepare(cfg)
		if err != nil {
			return def.OutputSchema(cfg)
		}
		return r.OutputSchema(prepared)
	}
	b.graph = func(cfg *Config) (*graph.Graph, error) {
		r, prepared, _, err := prepare(cfg)
		if err != nil {
			return nil, err
		}
		return r.Graph(prepared)
	}
}

// configurableBatch 全部落到默认对象时整批委托，否则逐个调用各自的对象。
func configurableBatch[I, O any](def Runnable[I, O], prepare prepareFunc[I, O], async bool) batchFunc[I, O] {
	type preparedItem struct {
		r   Runnable[I, O]
		cfg *Config
		err error
	}

	return func(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error) {
		if len(inputs) == 0 {
			return []Result[O]{}, nil
		}

		configs, err := GetConfigList(cfgs, len(inputs))
		if err != nil {
			return nil, err
		}

		items := make([]preparedItem, len(inputs))
		allDefault := true
		for i, cfg := range configs {
			r, prepared, isDefault, err := prepare(cfg)
			items[i] = preparedItem{r: r, cfg: prepared, err: err}
			if err != nil || !isDefault {
				allDefault = false
			}
		}

		if allDefault {
			preparedCfgs := make([]*Config, len(items))
			for i, it := range items {
				preparedCfgs[i] = it.cfg
			}
			if async {
				return def.ABatch(ctx, inputs, preparedCfgs, returnExceptions)
			}
			return def.Batch(ctx, inputs, preparedCfgs, returnExceptions)
		}

		call := func(ctx context.Context, i int) (O, error) {
			it := items[i]
			if it.err != nil {
				var o O
				return o, it.err
			}
			if async {
				return it.r.AInvoke(ctx, inputs[i], it.cfg)
			}
			return it.r.Invoke(ctx, inputs[i], it.cfg)
		}

		if !async || len(inputs) == 1 {
			results := make([]Result[O], len(inputs))
			for i := range inputs {
				out, err := call(ctx, i)
				if err != nil && !returnExceptions {
					return nil, err
				}
				results[i] = Result[O]{Value: out, Err: err}
			}
			return results, nil
		}

		return gather(ctx, maxConcurrencyOf(configs), len(inputs), returnExceptions, call)
	}
}

// ====== ConfigurableFields ======

// ReconfigureFunc 以解析出的字段值重新构造对象，fields 的键为字段名。
// 返回 nil 表示继续使用默认对象。
type ReconfigureFunc[I, O any] func(def Runnable[I, O], fields map[string]any) (Runnable[I, O], error)

// ConfigurableFields 字段可在运行时配置的可执行对象。
type ConfigurableFields[I, O any] struct {
	*base[I, O]

	def         Runnable[I, O]
	fields      map[string]AnyConfigurableField
	reconfigure ReconfigureFunc[I, O]
	opts        *configurableOptions
}

// NewConfigurableFields 创建 ConfigurableFields。fields 的键为字段名，值声明字段对应的配置标识。
//
//	model := compose.NewConfigurableFields(chat, map[string]compose.AnyConfigurableField{
//		"temperature": compose.ConfigurableField{ID: "llm_temperature", Annotation: "float"},
//	}, func(def compose.Runnable[string, string], fields map[string]any) (compose.Runnable[string, string], error) {
//		return newChat(fields["temperature"].(float64)), nil
//	})
func NewConfigurableFields[I, O any](def Runnable[I, O], fields map[string]AnyConfigurableField,
	reconfigure ReconfigureFunc[I, O], opts ...ConfigurableOpt) *ConfigurableFields[I, O] {

	c := &ConfigurableFields[I, O]{
		base:        newBase[I, O]("RunnableConfigurableFields"),
		def:         def,
		fields:      gmap.Clone(fields),
		reconfigure: reconfigure,
		opts:        newConfigurableOptions(opts),
	}

	wireConfigurable(c.base, def, c.prepare)
	c.configSpecs = c.buildConfigSpecs

	c.complete()
	return c
}

// Default 返回默认对象。
func (c *ConfigurableFields[I, O]) Default() Runnable[I, O] {
	return c.def
}

// prepare 解析配置中出现的字段，没有任何字段时直接使用默认对象。
func (c *ConfigurableFields[I, O]) prepare(cfg *Config) (Runnable[I, O], *Config, bool, error) {
	merged := EnsureConfig(MergeConfigs(c.opts.config, cfg))

	resolved := make(map[string]any)
	for name, field := range c.fields {
		v, ok := merged.Configurable[field.fieldID()]
		if !ok {
			continue
		}
		rv, err := field.resolve(v)
		if err != nil {
			return nil, nil, false, err
		}
		resolved[name] = rv
	}

	if len(resolved) == 0 || c.reconfigure == nil {
		return c.def, merged, true, nil
	}

	r, err := c.reconfigure(c.def, resolved)
	if err != nil {
		return nil, nil, false, fmt.Errorf("reconfigure %s: %w", c.def.Name(), err)
	}
	if r == nil {
		return c.def, merged, true, nil
	}
	return r, merged, sameRunnable(r, c.def), nil
}

func (c *ConfigurableFields[I, O]) buildConfigSpecs() ([]ConfigurableFieldSpec, error) {
	specs := make([]ConfigurableFieldSpec, 0, len(c.fields))
	for _, name := range gmap.SortedKeys(c.fields) {
		specs = append(specs, c.fields[name].spec())
	}

	defSpecs, err := c.def.ConfigSpecs()
	if err != nil {
		return nil, err
	}
	return GetUniqueConfigSpecs(append(specs, defSpecs...))
}

// ====== ConfigurableAlternatives ======

// Alternative 备选对象：现成的实例，或在被选中时才构造的工厂。
type Alternative[I, O any] struct {
	runnable Runnable[I, O]
	factory  func() Runnable[I, O]
}

// AlternativeOf 以现成实例作为备选。
func AlternativeOf[I, O any](r Runnable[I, O]) Alternative[I, O] {
	return Alternative[I, O]{runnable: r}
}

// AlternativeFactory 以工厂作为备选，每次被选中时调用一次。
func AlternativeFactory[I, O any](factory func() Runnable[I, O]) Alternative[I, O] {
	return Alternative[I, O]{factory: factory}
}

func (a Alternative[I, O]) get() Runnable[I, O] {
	if a.runnable != nil {
		return a.runnable
	}
	return a.factory()
}

// ConfigurableAlternatives 可在运行时切换为备选对象的可执行对象。
type ConfigurableAlternatives[I, O any] struct {
	*base[I, O]

	which        ConfigurableField
	def          Runnable[I, O]
	alternatives map[string]Alternative[I, O]
	opts         *configurableOptions
}

// NewConfigurableAlternatives 创建 ConfigurableAlternatives。which.ID 为选择项的配置标识。
//
//	llm := compose.NewConfigurableAlternatives(
//		compose.ConfigurableField{ID: "llm"}, openai,
//		map[string]compose.Alternative[string, string]{"claude": compose.AlternativeOf(claude)},
//		compose.WithDefaultKey("openai"))
func NewConfigurableAlternatives[I, O any](which ConfigurableField, def Runnable[I, O],
	alternatives map[string]Alternative[I, O], opts ...ConfigurableOpt) *ConfigurableAlternatives[I, O] {

	c := &ConfigurableAlternatives[I, O]{
		base:         newBase[I, O]("RunnableConfigurableAlternatives"),
		which:        which,
		def:          def,
		alternatives: gmap.Clone(alternatives),
		opts:         newConfigurableOptions(opts),
	}

	wireConfigurable(c.base, def, c.prepare)
	c.configSpecs = c.buildConfigSpecs

	c.complete()
	return c
}

// Default 返回默认对象。
func (c *ConfigurableAlternatives[I, O]) Default() Runnable[I, O] {
	return c.def
}

// prepare 读取选择项，缺省时选默认对象。
func (c *ConfigurableAlternatives[I, O]) prepare(cfg *Config) (Runnable[I, O], *Config, bool, error) {
	merged := EnsureConfig(MergeConfigs(c.opts.config, cfg))

	which := c.opts.defaultKey
	if v, ok := merged.Configurable[c.which.ID].(string); ok {
		which = v
	}

	if c.opts.prefixKeys {
		prefix := c.which.ID + "==" + which + "/"
		stripped := make(map[string]any, len(merged.Configurable))
		for k, v := range merged.Configurable {
			stripped[strings.TrimPrefix(k, prefix)] = v
		}
		merged.Configurable = stripped
	}

	if which == c.opts.defaultKey {
		return c.def, merged, true, nil
	}
	if alt, ok := c.alternatives[which]; ok {
		r := alt.get()
		return r, merged, sameRunnable(r, c.def), nil
	}
	return nil, nil, false, fmt.Errorf("%w: %s", ErrUnknownAlternative, which)
}

func (c *ConfigurableAlternatives[I, O]) buildConfigSpecs() ([]ConfigurableFieldSpec, error) {
	keys := gmap.SortedKeys(c.alternatives)

	whichSpec := ConfigurableFieldSpec{
		ID:          c.which.ID,
		Annotation:  enumAnnotation(append(keys, c.opts.defaultKey)),
		Name:        c.which.Name,
		Description: c.which.Description,
		Default:     c.opts.defaultKey,
		IsShared:    c.which.IsShared,
	}
	specs := []ConfigurableFieldSpec{whichSpec}

	defSpecs, err := c.def.ConfigSpecs()
	if err != nil {
		return nil, err
	}
	specs = append(specs, defSpecs...)

	for _, key := range keys {
		alt := c.alternatives[key]
		// 工厂在被选中前不构造
		if alt.runnable == nil {
			continue
		}
		altSpecs, err := alt.runnable.ConfigSpecs()
		if err != nil {
			return nil, err
		}
		for _, s := range altSpecs {
			if c.opts.prefixKeys {
				s = PrefixConfigSpec(s, c.which.ID+"=="+key)
			}
			specs = append(specs, s)
		}
	}

	return GetUniqueConfigSpecs(specs)
}

// sameRunnable 判断两者是否为同一个实例，只比较指针。
func sameRunnable[I, O any](a, b Runnable[I, O]) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta.Kind() != reflect.Pointer || ta != reflect.TypeOf(b) {
		return false
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
