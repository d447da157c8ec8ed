package graph

import (
	"strings"
	"testing"

	"github.com/eino-contrib/jsonschema"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNode(t *testing.T, g *Graph, data *NodeData, opts ...NodeOption) *Node {
	t.Helper()
	n, err := g.AddNode(data, opts...)
	require.NoError(t, err)
	return n
}

func mustEdge(t *testing.T, g *Graph, src, tgt *Node) {
	t.Helper()
	_, err := g.AddEdge(src, tgt, "", false)
	require.NoError(t, err)
}

// linear 构造 in -> runnable -> out 三节点图
func linear(t *testing.T, name string) *Graph {
	g := New()
	in := mustNode(t, g, SchemaData(&jsonschema.Schema{Title: name + "Input", Type: "object"}))
	r := mustNode(t, g, RunnableData(name))
	out := mustNode(t, g, SchemaData(&jsonschema.Schema{Title: name + "Output", Type: "object"}))
	mustEdge(t, g, in, r)
	mustEdge(t, g, r, out)
	return g
}

func TestFirstLastNode(t *testing.T) {
	Convey("首尾节点唯一性", t, func() {
		Convey("线性链有唯一的首尾节点", func() {
			g := linear(t, "Prompt")
			So(g.FirstNode(), ShouldNotBeNil)
			So(g.FirstNode().Name, ShouldEqual, "PromptInput")
			So(g.LastNode().Name, ShouldEqual, "PromptOutput")
		})

		Convey("两个根节点时首节点为 nil", func() {
			g := New()
			a := mustNode(t, g, RunnableData("a"))
			b := mustNode(t, g, RunnableData("b"))
			c := mustNode(t, g, RunnableData("c"))
			mustEdge(t, g, a, c)
			mustEdge(t, g, b, c)
			So(g.FirstNode(), ShouldBeNil)
			So(g.LastNode().ID, ShouldEqual, c.ID)
		})

		Convey("空图没有首尾节点", func() {
			g := New()
			So(g.FirstNode(), ShouldBeNil)
			So(g.LastNode(), ShouldBeNil)
		})
	})
}

func TestAddNodeAndEdge(t *testing.T) {
	g := New()
	a := mustNode(t, g, RunnableData("a"), WithNodeID("a"), WithNodeMetadata(map[string]any{"k": 1}))
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, map[string]any{"k": 1}, a.Metadata)

	_, err := g.AddNode(RunnableData("dup"), WithNodeID("a"))
	assert.ErrorIs(t, err, ErrDuplicateNode)

	_, err = g.AddEdge(a, &Node{ID: "ghost"}, "", false)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	unnamed := mustNode(t, g, nil)
	assert.True(t, IsUUID(unnamed.ID))
	assert.Equal(t, unnamed.ID, unnamed.Name)
}

func TestRemoveNode(t *testing.T) {
	g := linear(t, "Lambda")
	mid := g.Nodes()[1]
	g.RemoveNode(mid)
	assert.Equal(t, 2, g.Len())
	assert.Empty(t, g.Edges())
}

func TestTrimFirstLastNode(t *testing.T) {
	g := linear(t, "Lambda")
	g.TrimFirstNode()
	g.TrimLastNode()
	require.Equal(t, 1, g.Len())
	assert.Equal(t, "Lambda", g.Nodes()[0].Name)

	// 只剩一个节点时不再裁剪
	g.TrimFirstNode()
	g.TrimLastNode()
	assert.Equal(t, 1, g.Len())

	// 首节点有两条出边时不裁剪
	fan := New()
	in := mustNode(t, fan, RunnableData("in"))
	x := mustNode(t, fan, RunnableData("x"))
	y := mustNode(t, fan, RunnableData("y"))
	out := mustNode(t, fan, RunnableData("out"))
	mustEdge(t, fan, in, x)
	mustEdge(t, fan, in, y)
	mustEdge(t, fan, x, out)
	mustEdge(t, fan, y, out)
	fan.TrimFirstNode()
	fan.TrimLastNode()
	assert.Equal(t, 4, fan.Len())
}

func TestExtend(t *testing.T) {
	Convey("拼接子图", t, func() {
		Convey("UUID 节点不加前缀，返回子图首尾节点", func() {
			g := New()
			first, last := g.Extend(linear(t, "Lambda"), "sub")
			So(g.Len(), ShouldEqual, 3)
			So(first.Name, ShouldEqual, "LambdaInput")
			So(last.Name, ShouldEqual, "LambdaOutput")
			So(IsUUID(first.ID), ShouldBeTrue)
		})

		Convey("非 UUID 节点加前缀，边同步改写", func() {
			sub := New()
			a := mustNode(t, sub, RunnableData("a"), WithNodeID("a"))
			b := mustNode(t, sub, RunnableData("b"), WithNodeID("b"))
			mustEdge(t, sub, a, b)

			g := New()
			first, last := g.Extend(sub, "agent")
			So(first.ID, ShouldEqual, "agent:a")
			So(last.ID, ShouldEqual, "agent:b")
			So(g.Edges()[0].Source, ShouldEqual, "agent:a")
			So(g.Edges()[0].Target, ShouldEqual, "agent:b")

			// 原图不受影响
			So(a.ID, ShouldEqual, "a")
		})
	})
}

func TestReid(t *testing.T) {
	g := New()
	a := mustNode(t, g, RunnableData("BaseModel"))
	b := mustNode(t, g, RunnableData("BaseModel"))
	c := mustNode(t, g, RunnableData("Lambda"))
	keep := mustNode(t, g, RunnableData("Stable"), WithNodeID("stable"))
	mustEdge(t, g, a, c)
	mustEdge(t, g, b, c)
	mustEdge(t, g, c, keep)

	r := g.Reid()
	var ids []string
	for _, n := range r.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"BaseModel_1", "BaseModel_2", "Lambda", "stable"}, ids)

	edges := r.Edges()
	assert.Equal(t, "BaseModel_1", edges[0].Source)
	assert.Equal(t, "Lambda", edges[0].Target)
	assert.Equal(t, "BaseModel_2", edges[1].Source)
	assert.Equal(t, "stable", edges[2].Target)

	// 原图保持 UUID
	assert.True(t, IsUUID(g.Nodes()[0].ID))
}

func TestToJSON(t *testing.T) {
	g := New()
	in := mustNode(t, g, SchemaData(&jsonschema.Schema{Title: "In", Type: "object"}))
	r := mustNode(t, g, RunnableData("Lambda"), WithNodeMetadata(map[string]any{"b": 2, "a": 1}))
	out := mustNode(t, g, SchemaData(&jsonschema.Schema{Title: "Out", Type: "object"}), WithNodeID("out"))
	mustEdge(t, g, in, r)
	_, err := g.AddEdge(r, out, "done", true)
	require.NoError(t, err)

	data, err := g.ToJSON(false)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nodes": [
			{"id": 0, "name": "In", "type": "schema", "data": "In"},
			{"id": 1, "name": "Lambda", "type": "runnable", "data": {"name": "Lambda"}, "metadata": {"a": 1, "b": 2}},
			{"id": "out", "name": "Out", "type": "schema", "data": "Out"}
		],
		"edges": [
			{"source": 0, "target": 1},
			{"source": 1, "target": "out", "data": "done", "conditional": true}
		]
	}`, string(data))

	data, err = g.ToJSON(true)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":"In"`)
}

func TestToSafeID(t *testing.T) {
	assert.Equal(t, "foo_bar-Baz09", ToSafeID("foo_bar-Baz09"))
	assert.Equal(t, `\23foo\2a\26\21`, ToSafeID("#foo*&!"))
	assert.Equal(t, `a\3ab`, ToSafeID("a:b"))
	assert.Equal(t, `\4e2d`, ToSafeID("中"))

	for _, s := range []string{"abc", "A-B_C", "x1y2"} {
		assert.Equal(t, s, ToSafeID(s))
	}
	for _, r := range " .:/()" {
		out := ToSafeID(string(r))
		assert.True(t, strings.HasPrefix(out, `\`))
	}
}

func TestDrawMermaid(t *testing.T) {
	Convey("Mermaid 渲染", t, func() {
		Convey("线性链", func() {
			out, err := linear(t, "Prompt").DrawMermaid()
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "graph TD;\n"+
				"\tPromptInput([PromptInput]):::first\n"+
				"\tPrompt(Prompt)\n"+
				"\tPromptOutput([PromptOutput]):::last\n"+
				"\tPromptInput --> Prompt;\n"+
				"\tPrompt --> PromptOutput;\n"+
				"\tclassDef default fill:#f2f0ff,line-height:1.2\n"+
				"\tclassDef first fill-opacity:0\n"+
				"\tclassDef last fill:#bfb6fc\n")
		})

		Convey("无样式时只输出边", func() {
			out, err := linear(t, "Prompt").DrawMermaid(WithStyles(false))
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "graph TD;\n\tPromptInput --> Prompt;\n\tPrompt --> PromptOutput;\n")
		})

		Convey("非默认曲线输出 frontmatter", func() {
			out, err := linear(t, "Prompt").DrawMermaid(
				WithCurveStyle(CurveBasis),
				WithFrontmatter(map[string]any{"title": "demo"}),
			)
			So(err, ShouldBeNil)
			So(strings.HasPrefix(out, "---\nconfig:\n  flowchart:\n    curve: basis\ntitle: demo\n---\ngraph TD;\n"), ShouldBeTrue)
		})

		Convey("条件边与标签换行", func() {
			g := New()
			a := mustNode(t, g, RunnableData("a"), WithNodeID("a"))
			b := mustNode(t, g, RunnableData("b"), WithNodeID("b"))
			c := mustNode(t, g, RunnableData("c"), WithNodeID("c"))
			_, _ = g.AddEdge(a, b, "one two three", true)
			_, _ = g.AddEdge(b, c, "", true)
			out, err := g.DrawMermaid(WithStyles(false), WithWrapLabelNWords(2))
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "graph TD;\n"+
				"\ta -. &nbsp;one two&nbsp<br>&nbspthree&nbsp; .-> b;\n"+
				"\tb -.-> c;\n")
		})

		Convey("冒号前缀渲染为子图", func() {
			g := New()
			start := mustNode(t, g, RunnableData("__start__"), WithNodeID("__start__"))
			a := mustNode(t, g, RunnableData("agent:a"), WithNodeID("agent:a"))
			b := mustNode(t, g, RunnableData("agent:b"), WithNodeID("agent:b"), WithNodeMetadata(map[string]any{"k": "v"}))
			end := mustNode(t, g, RunnableData("__end__"), WithNodeID("__end__"))
			mustEdge(t, g, start, a)
			mustEdge(t, g, a, b)
			mustEdge(t, g, b, end)

			out, err := g.DrawMermaid()
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "graph TD;\n"+
				"\t__start__([<p>__start__</p>]):::first\n"+
				"\t__end__([<p>__end__</p>]):::last\n"+
				"\t__start__ --> agent\\3aa;\n"+
				"\tagent\\3ab --> __end__;\n"+
				"\tsubgraph agent\n"+
				"\tagent\\3aa(a)\n"+
				"\tagent\\3ab(b<hr/><small><em>k = v</em></small>)\n"+
				"\tagent\\3aa --> agent\\3ab;\n"+
				"\tend\n"+
				"\tclassDef default fill:#f2f0ff,line-height:1.2\n"+
				"\tclassDef first fill-opacity:0\n"+
				"\tclassDef last fill:#bfb6fc\n")
		})

		Convey("嵌套子图与无边子图", func() {
			g := New()
			x := mustNode(t, g, RunnableData("outer:inner:x"), WithNodeID("outer:inner:x"))
			y := mustNode(t, g, RunnableData("outer:inner:y"), WithNodeID("outer:inner:y"))
			o := mustNode(t, g, RunnableData("outer:o"), WithNodeID("outer:o"))
			mustNode(t, g, RunnableData("lonely:n"), WithNodeID("lonely:n"))
			mustEdge(t, g, o, x)
			mustEdge(t, g, x, y)

			out, err := g.DrawMermaid()
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "\tsubgraph outer\n")
			So(out, ShouldContainSubstring, "\tsubgraph inner\n\touter\\3ainner\\3ax(x)\n")
			So(out, ShouldContainSubstring, "\tsubgraph lonely\n\tlonely\\3an(n)\n\tend\n")
			So(strings.Index(out, "subgraph inner"), ShouldBeGreaterThan, strings.Index(out, "subgraph outer"))
		})

		Convey("同名子图报错", func() {
			g := New()
			o := mustNode(t, g, RunnableData("p:o"), WithNodeID("p:o"))
			a := mustNode(t, g, RunnableData("p:sub:a"), WithNodeID("p:sub:a"))
			b := mustNode(t, g, RunnableData("p:sub:b"), WithNodeID("p:sub:b"))
			c := mustNode(t, g, RunnableData("sub:c"), WithNodeID("sub:c"))
			d := mustNode(t, g, RunnableData("sub:d"), WithNodeID("sub:d"))
			mustEdge(t, g, o, a)
			mustEdge(t, g, a, b)
			mustEdge(t, g, c, d)
			_, err := g.DrawMermaid(WithStyles(false))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "duplicate subgraph 'sub'")
		})
	})
}
