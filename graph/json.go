package graph

import (
	"github.com/bytedance/sonic"
)

type jsonNode struct {
	ID       any            `json:"id"`
	Name     string         `json:"name"`
	Type     NodeKind       `json:"type,omitempty"`
	Data     any            `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type jsonEdge struct {
	Source      any    `json:"source"`
	Target      any    `json:"target"`
	Data        string `json:"data,omitempty"`
	Conditional bool   `json:"conditional,omitempty"`
}

type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

// ToJSON 序列化为 {"nodes": [...], "edges": [...]}。
// UUID 节点 ID 替换为其插入序号，保证输出稳定；withSchemas 为 true 时 schema 节点输出完整 schema，否则只输出标题。
func (g *Graph) ToJSON(withSchemas bool) ([]byte, error) {
	stable := make(map[string]any, g.nodes.Len())
	i := 0
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		if IsUUID(pair.Key) {
			stable[pair.Key] = i
		} else {
			stable[pair.Key] = pair.Key
		}
		i++
	}

	out := jsonGraph{
		Nodes: make([]jsonNode, 0, g.nodes.Len()),
		Edges: make([]jsonEdge, 0, len(g.edges)),
	}
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		n := pair.Value
		jn := jsonNode{ID: stable[n.ID], Name: n.Name, Metadata: n.Metadata}
		if n.Data != nil {
			jn.Type = n.Data.Kind
			switch {
			case n.Data.Kind == KindSchema && withSchemas && n.Data.Schema != nil:
				jn.Data = n.Data.Schema
			case n.Data.Kind == KindRunnable:
				jn.Data = map[string]any{"name": n.Data.Name}
			default:
				jn.Data = n.Data.Name
			}
		}
		out.Nodes = append(out.Nodes, jn)
	}
	for _, e := range g.edges {
		out.Edges = append(out.Edges, jsonEdge{
			Source:      stable[e.Source],
			Target:      stable[e.Target],
			Data:        e.Data,
			Conditional: e.Conditional,
		})
	}

	return sonic.ConfigStd.Marshal(out)
}
