package graph

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CurveStyle Mermaid 连线曲线样式。
type CurveStyle string

const (
	CurveBasis      CurveStyle = "basis"
	CurveBumpX      CurveStyle = "bumpX"
	CurveBumpY      CurveStyle = "bumpY"
	CurveCardinal   CurveStyle = "cardinal"
	CurveCatmullRom CurveStyle = "catmullRom"
	CurveLinear     CurveStyle = "linear"
	CurveMonotoneX  CurveStyle = "monotoneX"
	CurveMonotoneY  CurveStyle = "monotoneY"
	CurveNatural    CurveStyle = "natural"
	CurveStep       CurveStyle = "step"
	CurveStepAfter  CurveStyle = "stepAfter"
	CurveStepBefore CurveStyle = "stepBefore"
)

// NodeStyles 三类节点的 classDef。
type NodeStyles struct {
	Default string
	First   string
	Last    string
}

// DefaultNodeStyles 默认节点样式。
func DefaultNodeStyles() NodeStyles {
	return NodeStyles{
		Default: "fill:#f2f0ff,line-height:1.2",
		First:   "fill-opacity:0",
		Last:    "fill:#bfb6fc",
	}
}

type mermaidOptions struct {
	withStyles      bool
	curveStyle      CurveStyle
	nodeStyles      NodeStyles
	wrapLabelNWords int
	frontmatter     map[string]any
}

// MermaidOption 配置 DrawMermaid。
type MermaidOption func(*mermaidOptions)

// WithStyles 是否输出节点行、frontmatter 和 classDef，默认 true。
func WithStyles(enabled bool) MermaidOption {
	return func(o *mermaidOptions) { o.withStyles = enabled }
}

// WithCurveStyle 连线曲线样式，默认 CurveLinear。
func WithCurveStyle(style CurveStyle) MermaidOption {
	return func(o *mermaidOptions) { o.curveStyle = style }
}

// WithNodeStyles 节点样式，默认 DefaultNodeStyles()。
func WithNodeStyles(styles NodeStyles) MermaidOption {
	return func(o *mermaidOptions) { o.nodeStyles = styles }
}

// WithWrapLabelNWords 边标签每 n 个词换行，默认 9。
func WithWrapLabelNWords(n int) MermaidOption {
	return func(o *mermaidOptions) { o.wrapLabelNWords = n }
}

// WithFrontmatter 额外的 YAML frontmatter，曲线样式写入 config.flowchart.curve。
func WithFrontmatter(frontmatter map[string]any) MermaidOption {
	return func(o *mermaidOptions) { o.frontmatter = frontmatter }
}

var markdownSpecialChars = []string{"*", "_", "`"}

// ToSafeID 转义 Mermaid 标识符：[a-zA-Z0-9_-] 之外的字符替换为 `\` 加码点的小写十六进制。
//
//	ToSafeID("#foo*&!") // `\23foo\2a\26\21`
func ToSafeID(label string) string {
	var b strings.Builder
	for _, r := range label {
		if isSafeRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('\\')
		b.WriteString(strconv.FormatInt(int64(r), 16))
	}
	return b.String()
}

func isSafeRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}

// DrawMermaid 渲染 Mermaid 流程图。节点 ID 先经过 Reid 变成可读名称。
func (g *Graph) DrawMermaid(opts ...MermaidOption) (string, error) {
	o := &mermaidOptions{
		withStyles:      true,
		curveStyle:      CurveLinear,
		nodeStyles:      DefaultNodeStyles(),
		wrapLabelNWords: 9,
	}
	for _, opt := range opts {
		opt(o)
	}

	rg := g.Reid()
	r := &mermaidRenderer{opts: o, seen: make(map[string]struct{})}
	if n := rg.FirstNode(); n != nil {
		r.first = n.ID
	}
	if n := rg.LastNode(); n != nil {
		r.last = n.ID
	}

	if err := r.render(rg.Nodes(), rg.edges); err != nil {
		return "", err
	}
	return r.buf.String(), nil
}

type edgeGroup struct {
	prefix string
	edges  []*Edge
}

type mermaidRenderer struct {
	opts        *mermaidOptions
	first, last string

	buf  strings.Builder
	seen map[string]struct{}

	subgraphOrder []string
	subgraphNodes map[string][]*Node
	edgeGroups    []*edgeGroup
}

func (r *mermaidRenderer) render(nodes []*Node, edges []*Edge) error {
	if r.opts.withStyles {
		if err := r.writeFrontmatter(); err != nil {
			return err
		}
	}
	r.buf.WriteString("graph TD;\n")

	var regular []*Node
	r.subgraphNodes = make(map[string][]*Node)
	for _, n := range nodes {
		idx := strings.LastIndex(n.ID, ":")
		if idx < 0 {
			regular = append(regular, n)
			continue
		}
		prefix := n.ID[:idx]
		if _, ok := r.subgraphNodes[prefix]; !ok {
			r.subgraphOrder = append(r.subgraphOrder, prefix)
		}
		r.subgraphNodes[prefix] = append(r.subgraphNodes[prefix], n)
	}

	if r.opts.withStyles {
		for _, n := range regular {
			r.writeNode(n)
		}
	}

	groups := make(map[string]*edgeGroup)
	for _, e := range edges {
		prefix := commonPrefix(e.Source, e.Target)
		grp, ok := groups[prefix]
		if !ok {
			grp = &edgeGroup{prefix: prefix}
			groups[prefix] = grp
			r.edgeGroups = append(r.edgeGroups, grp)
		}
		grp.edges = append(grp.edges, e)
	}

	var top []*Edge
	if grp, ok := groups[""]; ok {
		top = grp.edges
	}
	if err := r.writeSubgraph(top, ""); err != nil {
		return err
	}

	for _, grp := range r.edgeGroups {
		if grp.prefix == "" || strings.Contains(grp.prefix, ":") {
			continue
		}
		if err := r.writeSubgraph(grp.edges, grp.prefix); err != nil {
			return err
		}
	}

	if r.opts.withStyles {
		// 没有任何边的顶层子图
		for _, prefix := range r.subgraphOrder {
			if strings.Contains(prefix, ":") {
				continue
			}
			if _, ok := r.seen[prefix]; ok {
				continue
			}
			r.seen[prefix] = struct{}{}
			fmt.Fprintf(&r.buf, "\tsubgraph %s\n", prefix)
			for _, n := range r.subgraphNodes[prefix] {
				r.writeNode(n)
			}
			r.buf.WriteString("\tend\n")
		}

		styles := r.opts.nodeStyles
		fmt.Fprintf(&r.buf, "\tclassDef default %s\n", styles.Default)
		fmt.Fprintf(&r.buf, "\tclassDef first %s\n", styles.First)
		fmt.Fprintf(&r.buf, "\tclassDef last %s\n", styles.Last)
	}
	return nil
}

func (r *mermaidRenderer) writeFrontmatter() error {
	if r.opts.frontmatter == nil && r.opts.curveStyle == CurveLinear {
		return nil
	}

	fm := make(map[string]any, len(r.opts.frontmatter)+1)
	for k, v := range r.opts.frontmatter {
		fm[k] = v
	}
	config := cloneAnyMap(fm["config"])
	flowchart := cloneAnyMap(config["flowchart"])
	flowchart["curve"] = string(r.opts.curveStyle)
	config["flowchart"] = flowchart
	fm["config"] = config

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return fmt.Errorf("encode mermaid frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode mermaid frontmatter: %w", err)
	}

	r.buf.WriteString("---\n")
	r.buf.Write(out.Bytes())
	r.buf.WriteString("---\n")
	return nil
}

func (r *mermaidRenderer) writeSubgraph(edges []*Edge, prefix string) error {
	selfLoop := len(edges) == 1 && edges[0].Source == edges[0].Target
	block := prefix != "" && !selfLoop

	if block {
		name := prefix[strings.LastIndex(prefix, ":")+1:]
		if _, ok := r.seen[name]; ok {
			return fmt.Errorf("found duplicate subgraph '%s', this will cause rendering issues", name)
		}
		r.seen[name] = struct{}{}
		fmt.Fprintf(&r.buf, "\tsubgraph %s\n", name)

		if r.opts.withStyles {
			for _, n := range r.subgraphNodes[prefix] {
				r.writeNode(n)
			}
		}
	}

	for _, e := range edges {
		r.writeEdge(e)
	}

	if prefix != "" {
		for _, grp := range r.edgeGroups {
			nested := grp.prefix
			if !strings.HasPrefix(nested, prefix+":") || nested == prefix {
				continue
			}
			if strings.Contains(nested[len(prefix)+1:], ":") {
				continue
			}
			if err := r.writeSubgraph(grp.edges, nested); err != nil {
				return err
			}
		}
	}

	if block {
		r.buf.WriteString("\tend\n")
	}
	return nil
}

func (r *mermaidRenderer) writeNode(n *Node) {
	name := n.Name
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}

	label := name
	if hasAnyPrefix(name, markdownSpecialChars) && hasAnySuffix(name, markdownSpecialChars) {
		label = "<p>" + name + "</p>"
	}
	if len(n.Metadata) > 0 {
		keys := make([]string, 0, len(n.Metadata))
		for k := range n.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s = %v", k, n.Metadata[k]))
		}
		label += "<hr/><small><em>" + strings.Join(lines, "\n") + "</em></small>"
	}

	id := ToSafeID(n.ID)
	switch n.ID {
	case r.first:
		fmt.Fprintf(&r.buf, "\t%s([%s]):::first\n", id, label)
	case r.last:
		fmt.Fprintf(&r.buf, "\t%s([%s]):::last\n", id, label)
	default:
		fmt.Fprintf(&r.buf, "\t%s(%s)\n", id, label)
	}
}

func (r *mermaidRenderer) writeEdge(e *Edge) {
	var arrow string
	switch {
	case e.Data != "" && e.Conditional:
		arrow = " -. &nbsp;" + r.wrapLabel(e.Data) + "&nbsp; .-> "
	case e.Data != "":
		arrow = " -- &nbsp;" + r.wrapLabel(e.Data) + "&nbsp; --> "
	case e.Conditional:
		arrow = " -.-> "
	default:
		arrow = " --> "
	}
	fmt.Fprintf(&r.buf, "\t%s%s%s;\n", ToSafeID(e.Source), arrow, ToSafeID(e.Target))
}

func (r *mermaidRenderer) wrapLabel(label string) string {
	n := r.opts.wrapLabelNWords
	words := strings.Fields(label)
	if n <= 0 || len(words) <= n {
		return label
	}

	var lines []string
	for i := 0; i < len(words); i += n {
		end := i + n
		if end > len(words) {
			end = len(words)
		}
		lines = append(lines, strings.Join(words[i:end], " "))
	}
	return strings.Join(lines, "&nbsp<br>&nbsp")
}

// commonPrefix 两个 ID 按冒号切分后的公共前缀。
func commonPrefix(source, target string) string {
	src := strings.Split(source, ":")
	tgt := strings.Split(target, ":")

	var common []string
	for i := 0; i < len(src) && i < len(tgt); i++ {
		if src[i] != tgt[i] {
			break
		}
		common = append(common, src[i])
	}
	return strings.Join(common, ":")
}

func cloneAnyMap(v any) map[string]any {
	ret := make(map[string]any)
	if m, ok := v.(map[string]any); ok {
		for k, val := range m {
			ret[k] = val
		}
	}
	return ret
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, p := range suffixes {
		if strings.HasSuffix(s, p) {
			return true
		}
	}
	return false
}
