package callbacks

import (
	"context"

	"github.com/google/uuid"
)

// ctxRunInfoKey 当前运行信息在 context 中的键。
type ctxRunInfoKey struct{}

// RunInfoFromContext 返回 ctx 所在运行的信息，供叶子可执行对象关联父运行。
func RunInfoFromContext(ctx context.Context) (*RunInfo, bool) {
	info, ok := ctx.Value(ctxRunInfoKey{}).(*RunInfo)
	return info, ok && info != nil
}

// Manager 一组处理器及其继承状态。不可变：所有修改方法返回副本。
// nil *Manager 是合法值，只触发全局处理器。
type Manager struct {
	handlers    []Handler
	parentRunID uuid.UUID

	// tags 与 metadata 会继承给子运行
	tags     []string
	metadata map[string]any

	// localTags 只作用于当前这一级
	localTags []string
}

// NewManager 以给定处理器创建 Manager。
func NewManager(handlers ...Handler) *Manager {
	return &Manager{handlers: append([]Handler(nil), handlers...)}
}

// Handlers 返回处理器列表的副本。
func (m *Manager) Handlers() []Handler {
	if m == nil {
		return nil
	}
	return append([]Handler(nil), m.handlers...)
}

// ParentRunID 返回父运行标识。
func (m *Manager) ParentRunID() uuid.UUID {
	if m == nil {
		return uuid.Nil
	}
	return m.parentRunID
}

func (m *Manager) clone() *Manager {
	if m == nil {
		return &Manager{}
	}
	n := *m
	n.handlers = append([]Handler(nil), m.handlers...)
	n.tags = append([]string(nil), m.tags...)
	n.localTags = append([]string(nil), m.localTags...)
	if m.metadata != nil {
		n.metadata = make(map[string]any, len(m.metadata))
		for k, v := range m.metadata {
			n.metadata[k] = v
		}
	}
	return &n
}

// WithHandlers 追加处理器。
func (m *Manager) WithHandlers(handlers ...Handler) *Manager {
	n := m.clone()
	n.handlers = append(n.handlers, handlers...)
	return n
}

// WithTags 追加可继承标签，重复标签被忽略。
func (m *Manager) WithTags(tags ...string) *Manager {
	n := m.clone()
	n.tags = appendUnique(n.tags, tags...)
	return n
}

// WithMetadata 合并可继承元数据，已有键被覆盖。
func (m *Manager) WithMetadata(metadata map[string]any) *Manager {
	n := m.clone()
	if len(metadata) == 0 {
		return n
	}
	if n.metadata == nil {
		n.metadata = make(map[string]any, len(metadata))
	}
	for k, v := range metadata {
		n.metadata[k] = v
	}
	return n
}

// WithLocalTags 追加仅作用于本级的标签，不继承给子运行。
func (m *Manager) WithLocalTags(tags ...string) *Manager {
	n := m.clone()
	n.localTags = appendUnique(n.localTags, tags...)
	return n
}

// Merge 合并两个 Manager：处理器依次拼接，标签去重拼接，元数据右侧优先。
// 父运行标识取 other 中非空的一方。
func (m *Manager) Merge(other *Manager) *Manager {
	if other == nil {
		return m
	}
	if m == nil {
		return other
	}

	n := m.WithHandlers(other.handlers...).WithTags(other.tags...).WithMetadata(other.metadata)
	n.localTags = appendUnique(n.localTags, other.localTags...)
	if other.parentRunID != uuid.Nil {
		n.parentRunID = other.parentRunID
	}
	return n
}

// OnChainStart 开始一次运行。runID 为 uuid.Nil 时自动生成。
// 返回的 context 已携带本次运行信息，子调用应使用它。
func (m *Manager) OnChainStart(ctx context.Context, name, typ string, input CallbackInput,
	runID uuid.UUID) (context.Context, *RunManager) {

	if runID == uuid.Nil {
		runID = uuid.New()
	}

	var (
		handlers []Handler
		tags     []string
		metadata map[string]any
	)
	handlers = append(handlers, globalHandlers...)
	if m != nil {
		handlers = append(handlers, m.handlers...)
		tags = appendUnique(append([]string(nil), m.tags...), m.localTags...)
		metadata = m.metadata
	}

	info := &RunInfo{
		Name:        name,
		Type:        typ,
		RunID:       runID,
		ParentRunID: m.ParentRunID(),
		Tags:        tags,
		Metadata:    metadata,
	}

	ctx = context.WithValue(ctx, ctxRunInfoKey{}, info)
	for _, h := range handlers {
		if needed(ctx, h, info, TimingOnStart) {
			ctx = h.OnStart(ctx, info, input)
		}
	}

	rm := &RunManager{info: info, handlers: handlers}
	if m != nil {
		rm.inheritable = m.clone()
		rm.inheritable.localTags = nil
	}
	return ctx, rm
}

// RunManager 一次运行的回调句柄。
type RunManager struct {
	info        *RunInfo
	handlers    []Handler
	inheritable *Manager
}

// RunID 返回本次运行标识。
func (rm *RunManager) RunID() uuid.UUID {
	return rm.info.RunID
}

// Info 返回运行信息。
func (rm *RunManager) Info() *RunInfo {
	return rm.info
}

// OnChainEnd 运行成功结束。
func (rm *RunManager) OnChainEnd(ctx context.Context, output CallbackOutput) context.Context {
	for _, h := range rm.handlers {
		if needed(ctx, h, rm.info, TimingOnEnd) {
			ctx = h.OnEnd(ctx, rm.info, output)
		}
	}
	return ctx
}

// OnChainError 运行失败。
func (rm *RunManager) OnChainError(ctx context.Context, err error) context.Context {
	for _, h := range rm.handlers {
		if needed(ctx, h, rm.info, TimingOnError) {
			ctx = h.OnError(ctx, rm.info, err)
		}
	}
	return ctx
}

// Child 返回子运行使用的 Manager，tag 只作用于子运行这一级。
func (rm *RunManager) Child(tag string) *Manager {
	child := rm.inheritable.clone()
	child.localTags = nil
	if tag != "" {
		child.localTags = []string{tag}
	}
	child.parentRunID = rm.info.RunID
	return child
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
