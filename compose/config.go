package compose

/*
 * config.go - 调用配置
 *
 * 核心组件：
 *   - Config：单次调用的配置，在组合结构中逐层向下传递
 *   - EnsureConfig：补全默认值，并把可配置项中的原始类型值复制进元数据
 *   - MergeConfigs：多份配置按从左到右的顺序合并
 *   - PatchConfig：为子调用派生配置
 *   - GetConfigList：把单个配置或配置列表展开为批量调用所需的列表
 *
 * 约定：
 *   - 所有函数都不修改入参，返回新的 Config
 *   - MaxConcurrency 为 0 表示不限并发
 *   - RunID 为 uuid.Nil 表示未指定
 */

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eurora-labs/eurora-sub002/callbacks"
	"github.com/eurora-labs/eurora-sub002/internal/gmap"
)

// DefaultRecursionLimit 默认递归深度上限。
const DefaultRecursionLimit = 25

// Config 单次调用的配置。
type Config struct {
	// Tags 本次调用及所有子调用的标签，用于过滤
	Tags []string `json:"tags,omitempty"`
	// Metadata 本次调用及所有子调用的元数据，必须可 JSON 序列化
	Metadata map[string]any `json:"metadata,omitempty"`
	// Callbacks 生命周期回调
	Callbacks *callbacks.Manager `json:"-"`
	// RunName 追踪中显示的运行名称，不继承给子调用
	RunName string `json:"run_name,omitempty"`
	// MaxConcurrency 并发调用上限，0 表示不限
	MaxConcurrency int `json:"max_concurrency,omitempty"`
	// RecursionLimit 递归深度上限
	RecursionLimit int `json:"recursion_limit,omitempty"`
	// Configurable 运行时可配置项的取值，键为配置标识
	Configurable map[string]any `json:"configurable,omitempty"`
	// RunID 本次运行的唯一标识，不继承给子调用
	RunID uuid.UUID `json:"run_id"`
}

// ConfigOption 构造 Config 的选项。
type ConfigOption func(*Config)

// WithTags 追加标签。
func WithTags(tags ...string) ConfigOption {
	return func(c *Config) {
		c.Tags = append(c.Tags, tags...)
	}
}

// WithMetadata 合并元数据。
func WithMetadata(md map[string]any) ConfigOption {
	return func(c *Config) {
		c.Metadata = gmap.Concat(c.Metadata, md)
	}
}

// WithCallbacks 设置回调管理器。
func WithCallbacks(m *callbacks.Manager) ConfigOption {
	return func(c *Config) {
		c.Callbacks = m
	}
}

// WithCallbackHandlers 以处理器列表设置回调。
func WithCallbackHandlers(handlers ...callbacks.Handler) ConfigOption {
	return func(c *Config) {
		c.Callbacks = c.Callbacks.WithHandlers(handlers...)
	}
}

// WithRunName 设置运行名称。
func WithRunName(name string) ConfigOption {
	return func(c *Config) {
		c.RunName = name
	}
}

// WithMaxConcurrency 设置并发上限。
func WithMaxConcurrency(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConcurrency = n
	}
}

// WithRecursionLimit 设置递归深度上限。
func WithRecursionLimit(n int) ConfigOption {
	return func(c *Config) {
		c.RecursionLimit = n
	}
}

// WithConfigurable 合并可配置项取值。
func WithConfigurable(values map[string]any) ConfigOption {
	return func(c *Config) {
		c.Configurable = gmap.Concat(c.Configurable, values)
	}
}

// WithRunID 指定运行标识。
func WithRunID(id uuid.UUID) ConfigOption {
	return func(c *Config) {
		c.RunID = id
	}
}

// NewConfig 以选项构造已补全默认值的配置。
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	return EnsureConfig(c)
}

// ConfigFromJSON 解析 JSON 形式的配置，回调不参与序列化。
func ConfigFromJSON(data []byte) (*Config, error) {
	c := &Config{}
	if err := sonic.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return EnsureConfig(c), nil
}

// ====== 补全与合并 ======

// EnsureConfig 返回补全了默认值的配置副本。
// Configurable 中值为字符串、数字或布尔的项会复制进 Metadata，
// 以双下划线开头的键、api_key 以及 Metadata 中已存在的键除外。
func EnsureConfig(cfg *Config) *Config {
	ensured := &Config{
		Tags:           []string{},
		Metadata:       map[string]any{},
		RecursionLimit: DefaultRecursionLimit,
		Configurable:   map[string]any{},
	}

	if cfg != nil {
		ensured.Tags = append(ensured.Tags, cfg.Tags...)
		ensured.Metadata = gmap.Concat(ensured.Metadata, cfg.Metadata)
		ensured.Callbacks = cfg.Callbacks
		ensured.RunName = cfg.RunName
		ensured.MaxConcurrency = cfg.MaxConcurrency
		if cfg.RecursionLimit != 0 {
			ensured.RecursionLimit = cfg.RecursionLimit
		}
		ensured.Configurable = gmap.Concat(ensured.Configurable, cfg.Configurable)
		ensured.RunID = cfg.RunID
	}

	for k, v := range ensured.Configurable {
		if strings.HasPrefix(k, "__") || k == "api_key" || !isPrimitive(v) {
			continue
		}
		if _, ok := ensured.Metadata[k]; !ok {
			ensured.Metadata[k] = v
		}
	}

	return ensured
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// MergeConfigs 从左到右合并多份配置，nil 被忽略。
//   - Tags 去重拼接，保留首次出现的顺序
//   - Metadata、Configurable 取并集，右侧优先
//   - Callbacks 合并处理器
//   - RecursionLimit 仅在右侧不是默认值时覆盖
//   - 其它字段取最右侧的非零值
func MergeConfigs(cfgs ...*Config) *Config {
	base := &Config{}
	for _, c := range cfgs {
		if c == nil {
			continue
		}

		base.Tags = appendUnique(base.Tags, c.Tags...)
		if len(c.Metadata) > 0 {
			base.Metadata = gmap.Concat(base.Metadata, c.Metadata)
		}
		if len(c.Configurable) > 0 {
			base.Configurable = gmap.Concat(base.Configurable, c.Configurable)
		}
		if c.Callbacks != nil {
			base.Callbacks = base.Callbacks.Merge(c.Callbacks)
		}
		if c.RecursionLimit != 0 && c.RecursionLimit != DefaultRecursionLimit {
			base.RecursionLimit = c.RecursionLimit
		}
		if c.RunName != "" {
			base.RunName = c.RunName
		}
		if c.MaxConcurrency != 0 {
			base.MaxConcurrency = c.MaxConcurrency
		}
		if c.RunID != uuid.Nil {
			base.RunID = c.RunID
		}
	}
	return base
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

// ====== 派生 ======

// PatchOption 派生子配置的选项。
type PatchOption func(*Config)

// PatchCallbacks 替换回调管理器。子调用拥有独立身份，因此同时清空 RunName 和 RunID。
func PatchCallbacks(m *callbacks.Manager) PatchOption {
	return func(c *Config) {
		c.Callbacks = m
		c.RunName = ""
		c.RunID = uuid.Nil
	}
}

// PatchRecursionLimit 替换递归深度上限。
func PatchRecursionLimit(n int) PatchOption {
	return func(c *Config) {
		c.RecursionLimit = n
	}
}

// PatchMaxConcurrency 替换并发上限。
func PatchMaxConcurrency(n int) PatchOption {
	return func(c *Config) {
		c.MaxConcurrency = n
	}
}

// PatchRunName 替换运行名称。
func PatchRunName(name string) PatchOption {
	return func(c *Config) {
		c.RunName = name
	}
}

// PatchConfigurable 合并可配置项取值。
func PatchConfigurable(values map[string]any) PatchOption {
	return func(c *Config) {
		c.Configurable = gmap.Concat(c.Configurable, values)
	}
}

// PatchConfig 以 cfg 为基础派生新配置。
func PatchConfig(cfg *Config, opts ...PatchOption) *Config {
	c := EnsureConfig(cfg)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetConfigList 把配置展开为长度为 n 的列表。
//   - 空列表：n 份默认配置
//   - 单个配置：复制 n 份；若带有 RunID，只有第一份保留，并记录警告
//   - 多个配置：长度必须等于 n
func GetConfigList(cfgs []*Config, n int) ([]*Config, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrConfigListLength, n)
	}

	out := make([]*Config, n)
	switch {
	case len(cfgs) == 0:
		for i := range out {
			out[i] = EnsureConfig(nil)
		}
	case len(cfgs) == 1:
		c := cfgs[0]
		if c != nil && c.RunID != uuid.Nil && n > 1 {
			logger().Warn("provided run_id will be used only for the first element of the batch",
				zap.String("run_id", c.RunID.String()), zap.Int("batch_size", n))
			for i := range out {
				out[i] = EnsureConfig(c)
				if i > 0 {
					out[i].RunID = uuid.Nil
				}
			}
			break
		}
		for i := range out {
			out[i] = EnsureConfig(c)
		}
	default:
		if len(cfgs) != n {
			return nil, fmt.Errorf("%w: got %d configs for %d inputs", ErrConfigListLength, len(cfgs), n)
		}
		for i, c := range cfgs {
			out[i] = EnsureConfig(c)
		}
	}
	return out, nil
}

// ====== context 传递 ======

type ctxConfigKey struct{}

// ConfigFromContext 返回当前运行为子调用准备的配置。
// 叶子函数内部再调用其它可执行对象且未显式传入配置时，会继承这份配置。
func ConfigFromContext(ctx context.Context) *Config {
	c, _ := ctx.Value(ctxConfigKey{}).(*Config)
	return c
}

func withConfigContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxConfigKey{}, cfg)
}

// ensureConfig 显式传入的配置优先，否则继承 context 中的配置。
func ensureConfig(ctx context.Context, cfg *Config) *Config {
	if cfg == nil {
		if inherited := ConfigFromContext(ctx); inherited != nil {
			return EnsureConfig(inherited)
		}
	}
	return EnsureConfig(cfg)
}
