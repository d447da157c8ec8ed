package graph

/*
 * graph.go - 可执行对象的组合结构图
 *
 * 核心组件：
 *   - Node：节点，ID 可能是 UUID 或稳定名称，Data 指向 schema 或可执行对象
 *   - Edge：有向边，可带标签，Conditional 为虚线
 *   - Graph：按插入顺序保存的节点表 + 边列表
 *
 * 约定：
 *   - 无入边的节点至多一个（first），无出边的节点至多一个（last），否则 FirstNode/LastNode 返回 nil
 *   - ID 中冒号前缀表示所属子图，只影响渲染
 *   - 图在每次 Graph() 调用时新建，不在调用之间共享
 */

import (
	"errors"
	"fmt"

	"github.com/eino-contrib/jsonschema"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrDuplicateNode 节点 ID 已存在。
	ErrDuplicateNode = errors.New("node already exists")
	// ErrNodeNotFound 边引用了不存在的节点。
	ErrNodeNotFound = errors.New("node not found")
)

// NodeKind 节点负载的种类。
type NodeKind string

const (
	KindSchema   NodeKind = "schema"
	KindRunnable NodeKind = "runnable"
)

// NodeData 节点负载：输入输出 schema，或一个可执行对象。
type NodeData struct {
	Kind NodeKind
	// Name schema 的标题或可执行对象的名称
	Name string
	// Schema 仅 KindSchema 时有值
	Schema *jsonschema.Schema
}

// SchemaData 以 schema 构造节点负载，名称取 schema 标题。
func SchemaData(s *jsonschema.Schema) *NodeData {
	name := ""
	if s != nil {
		name = s.Title
	}
	return &NodeData{Kind: KindSchema, Name: name, Schema: s}
}

// RunnableData 以可执行对象名称构造节点负载。
func RunnableData(name string) *NodeData {
	return &NodeData{Kind: KindRunnable, Name: name}
}

// Node 图节点。
type Node struct {
	ID       string
	Name     string
	Data     *NodeData
	Metadata map[string]any
}

func (n *Node) withID(id string) *Node {
	c := *n
	c.ID = id
	return &c
}

// Edge 有向边。
type Edge struct {
	Source      string
	Target      string
	Data        string
	Conditional bool
}

// Graph 节点与边的集合。
type Graph struct {
	nodes *orderedmap.OrderedMap[string, *Node]
	edges []*Edge
}

// New 创建空图。
func New() *Graph {
	return &Graph{nodes: orderedmap.New[string, *Node]()}
}

// IsUUID 判断 ID 是否为自动生成的 UUID。
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// NextID 生成新的节点 ID。
func (g *Graph) NextID() string {
	return uuid.NewString()
}

// Len 节点数量。
func (g *Graph) Len() int {
	return g.nodes.Len()
}

// Nodes 按插入顺序返回节点。
func (g *Graph) Nodes() []*Node {
	ret := make([]*Node, 0, g.nodes.Len())
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		ret = append(ret, pair.Value)
	}
	return ret
}

// Node 按 ID 查找节点。
func (g *Graph) Node(id string) (*Node, bool) {
	return g.nodes.Get(id)
}

// Edges 返回边列表的副本。
func (g *Graph) Edges() []*Edge {
	return append([]*Edge(nil), g.edges...)
}

// NodeOption 配置 AddNode。
type NodeOption func(*Node)

// WithNodeID 指定节点 ID，默认生成 UUID。
func WithNodeID(id string) NodeOption {
	return func(n *Node) { n.ID = id }
}

// WithNodeName 指定显示名称，默认取负载名称。
func WithNodeName(name string) NodeOption {
	return func(n *Node) { n.Name = name }
}

// WithNodeMetadata 附加元数据，Mermaid 渲染时显示在标签下方。
func WithNodeMetadata(metadata map[string]any) NodeOption {
	return func(n *Node) { n.Metadata = metadata }
}

// AddNode 添加节点。
func (g *Graph) AddNode(data *NodeData, opts ...NodeOption) (*Node, error) {
	n := &Node{Data: data}
	for _, opt := range opts {
		opt(n)
	}
	if n.ID == "" {
		n.ID = g.NextID()
	}
	if n.Name == "" {
		if data != nil && data.Name != "" {
			n.Name = data.Name
		} else {
			n.Name = n.ID
		}
	}

	if _, ok := g.nodes.Get(n.ID); ok {
		return nil, fmt.Errorf("add node %s: %w", n.ID, ErrDuplicateNode)
	}
	g.nodes.Set(n.ID, n)
	return n, nil
}

// RemoveNode 删除节点及所有与之相连的边。
func (g *Graph) RemoveNode(n *Node) {
	g.nodes.Delete(n.ID)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != n.ID && e.Target != n.ID {
			kept = append(kept, e)
		}
	}
	g.edges = kept
}

// AddEdge 添加边，两端节点必须已在图中。
func (g *Graph) AddEdge(source, target *Node, data string, conditional bool) (*Edge, error) {
	if _, ok := g.nodes.Get(source.ID); !ok {
		return nil, fmt.Errorf("edge source %s: %w", source.ID, ErrNodeNotFound)
	}
	if _, ok := g.nodes.Get(target.ID); !ok {
		return nil, fmt.Errorf("edge target %s: %w", target.ID, ErrNodeNotFound)
	}

	e := &Edge{Source: source.ID, Target: target.ID, Data: data, Conditional: conditional}
	g.edges = append(g.edges, e)
	return e, nil
}

// FirstNode 唯一没有入边的节点，不存在或不唯一时返回 nil。
func (g *Graph) FirstNode() *Node {
	return g.firstNode()
}

// LastNode 唯一没有出边的节点，不存在或不唯一时返回 nil。
func (g *Graph) LastNode() *Node {
	return g.lastNode()
}

func (g *Graph) firstNode(exclude ...string) *Node {
	excluded := toSet(exclude)
	targets := make(map[string]struct{})
	for _, e := range g.edges {
		if _, ok := excluded[e.Source]; !ok {
			targets[e.Target] = struct{}{}
		}
	}
	return g.unique(excluded, targets)
}

func (g *Graph) lastNode(exclude ...string) *Node {
	excluded := toSet(exclude)
	sources := make(map[string]struct{})
	for _, e := range g.edges {
		if _, ok := excluded[e.Target]; !ok {
			sources[e.Source] = struct{}{}
		}
	}
	return g.unique(excluded, sources)
}

func (g *Graph) unique(excluded, connected map[string]struct{}) *Node {
	var found *Node
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := excluded[pair.Key]; ok {
			continue
		}
		if _, ok := connected[pair.Key]; ok {
			continue
		}
		if found != nil {
			return nil
		}
		found = pair.Value
	}
	return found
}

// TrimFirstNode 删除首节点，前提是删除后仍有唯一首节点，且首节点只有一条出边。
func (g *Graph) TrimFirstNode() {
	first := g.FirstNode()
	if first == nil || g.firstNode(first.ID) == nil {
		return
	}
	if g.countEdges(func(e *Edge) bool { return e.Source == first.ID }) == 1 {
		g.RemoveNode(first)
	}
}

// TrimLastNode 删除尾节点，前提是删除后仍有唯一尾节点，且尾节点只有一条入边。
func (g *Graph) TrimLastNode() {
	last := g.LastNode()
	if last == nil || g.lastNode(last.ID) == nil {
		return
	}
	if g.countEdges(func(e *Edge) bool { return e.Target == last.ID }) == 1 {
		g.RemoveNode(last)
	}
}

func (g *Graph) countEdges(match func(*Edge) bool) int {
	n := 0
	for _, e := range g.edges {
		if match(e) {
			n++
		}
	}
	return n
}

// Extend 把 other 的节点和边并入当前图，返回 other 的首尾节点在当前图中的对应节点。
// prefix 非空时，other 中非 UUID 的节点 ID 改写为 "prefix:id"。
func (g *Graph) Extend(other *Graph, prefix string) (first, last *Node) {
	prefixed := func(id string) string {
		if prefix == "" || IsUUID(id) {
			return id
		}
		return prefix + ":" + id
	}

	for pair := other.nodes.Oldest(); pair != nil; pair = pair.Next() {
		id := prefixed(pair.Key)
		g.nodes.Set(id, pair.Value.withID(id))
	}
	for _, e := range other.edges {
		g.edges = append(g.edges, &Edge{
			Source:      prefixed(e.Source),
			Target:      prefixed(e.Target),
			Data:        e.Data,
			Conditional: e.Conditional,
		})
	}

	if f := other.FirstNode(); f != nil {
		first, _ = g.nodes.Get(prefixed(f.ID))
	}
	if l := other.LastNode(); l != nil {
		last, _ = g.nodes.Get(prefixed(l.ID))
	}
	return first, last
}

// Reid 返回一份副本：UUID 节点 ID 改为节点名称，同名节点依次加后缀 _1、_2。
func (g *Graph) Reid() *Graph {
	var names []string
	nameToIDs := make(map[string][]string)
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		name := pair.Value.Name
		if _, ok := nameToIDs[name]; !ok {
			names = append(names, name)
		}
		nameToIDs[name] = append(nameToIDs[name], pair.Key)
	}

	labels := make(map[string]string, g.nodes.Len())
	for _, name := range names {
		ids := nameToIDs[name]
		for i, id := range ids {
			if len(ids) == 1 {
				labels[id] = name
			} else {
				labels[id] = fmt.Sprintf("%s_%d", name, i+1)
			}
		}
	}

	newID := func(id string) string {
		if label, ok := labels[id]; ok && IsUUID(id) {
			return label
		}
		return id
	}

	ret := New()
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		id := newID(pair.Key)
		ret.nodes.Set(id, pair.Value.withID(id))
	}
	for _, e := range g.edges {
		ret.edges = append(ret.edges, &Edge{
			Source:      newID(e.Source),
			Target:      newID(e.Target),
			Data:        e.Data,
			Conditional: e.Conditional,
		})
	}
	return ret
}

func toSet(ss []string) map[string]struct{} {
	ret := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		ret[s] = struct{}{}
	}
	return ret
}
