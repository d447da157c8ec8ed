package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"text/template/parse"
)

// parseVariables 返回模板引用的顶层变量，排序去重。
func parseVariables(text string, format FormatType) ([]string, error) {
	switch format {
	case FString:
		return fstringVariables(text)
	case GoTemplate:
		return goTemplateVariables(text)
	case Jinja2:
		return jinjaVariables(text), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

// ====== f-string ======

// fstringVariables 取 {name}、{name:spec}、{name!r}、{name.attr}、{name[0]} 中的 name，
// {{ 与 }} 为转义的花括号。
func fstringVariables(text string) ([]string, error) {
	var names []string
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{' at offset %d", i)
			}
			field := text[i+1 : i+end]
			if cut := strings.IndexAny(field, ":!.["); cut >= 0 {
				field = field[:cut]
			}
			field = strings.TrimSpace(field)
			if field == "" {
				return nil, fmt.Errorf("positional field at offset %d is not supported", i)
			}
			names = append(names, field)
			i += end
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				i++
				continue
			}
			return nil, fmt.Errorf("single '}' at offset %d", i)
		}
	}
	return sortedUnique(names), nil
}

// ====== text/template ======

// goTemplateVariables 遍历语法树，收集以 . 开头的字段的第一段。
// range / with 内部的 . 已经换了指向，不计入。
func goTemplateVariables(text string) ([]string, error) {
	tpl, err := template.New("template").Parse(text)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, t := range tpl.Templates() {
		if t.Tree == nil || t.Tree.Root == nil {
			continue
		}
		walkGoTemplate(t.Tree.Root, &names)
	}
	return sortedUnique(names), nil
}

func walkGoTemplate(node parse.Node, names *[]string) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			walkGoTemplate(c, names)
		}
	case *parse.ActionNode:
		walkPipe(n.Pipe, names)
	case *parse.IfNode:
		walkPipe(n.Pipe, names)
		walkGoTemplate(n.List, names)
		walkGoTemplate(n.ElseList, names)
	case *parse.RangeNode:
		walkPipe(n.Pipe, names)
		walkGoTemplate(n.ElseList, names)
	case *parse.WithNode:
		walkPipe(n.Pipe, names)
		walkGoTemplate(n.ElseList, names)
	case *parse.TemplateNode:
		walkPipe(n.Pipe, names)
	}
}

func walkPipe(pipe *parse.PipeNode, names *[]string) {
	if pipe == nil {
		return
	}
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			switch a := arg.(type) {
			case *parse.FieldNode:
				if len(a.Ident) > 0 {
					*names = append(*names, a.Ident[0])
				}
			case *parse.PipeNode:
				walkPipe(a, names)
			}
		}
	}
}

// ====== jinja2 ======

var (
	jinjaExprRe  = regexp.MustCompile(`\{\{-?\s*([A-Za-z_][A-Za-z0-9_]*)`)
	jinjaStmtRe  = regexp.MustCompile(`\{%-?\s*(if|elif|for|set)\s+([^%]*?)-?%\}`)
	jinjaIdentRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

var jinjaReserved = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "in": {}, "is": {}, "if": {}, "else": {},
	"true": {}, "false": {}, "none": {}, "True": {}, "False": {}, "None": {},
	"loop": {}, "defined": {}, "range": {}, "dict": {}, "namespace": {},
}

// jinjaVariables 收集 {{ }} 表达式与 if / for 语句中的顶层名称，
// for 的循环变量与 set 赋值的名称视为局部变量。
func jinjaVariables(text string) []string {
	locals := make(map[string]struct{})
	var candidates []string

	for _, m := range jinjaStmtRe.FindAllStringSubmatch(text, -1) {
		keyword, body := m[1], m[2]
		switch keyword {
		case "for":
			target, iter, ok := strings.Cut(body, " in ")
			if !ok {
				continue
			}
			for _, id := range jinjaIdentRe.FindAllString(target, -1) {
				locals[id] = struct{}{}
			}
			candidates = append(candidates, leadingIdents(iter)...)
		case "set":
			target, value, ok := strings.Cut(body, "=")
			if !ok {
				continue
			}
			locals[strings.TrimSpace(target)] = struct{}{}
			candidates = append(candidates, leadingIdents(value)...)
		default:
			candidates = append(candidates, leadingIdents(body)...)
		}
	}
	for _, m := range jinjaExprRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}

	var names []string
	for _, c := range candidates {
		if _, ok := locals[c]; ok {
			continue
		}
		if _, ok := jinjaReserved[c]; ok {
			continue
		}
		names = append(names, c)
	}
	return sortedUnique(names)
}

// leadingIdents 表达式中不跟在 . 或 | 之后、也不在引号内的名称。
func leadingIdents(expr string) []string {
	var (
		ret   []string
		quote byte
	)
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			i++
		case c == '"' || c == '\'':
			quote = c
			i++
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			loc := jinjaIdentRe.FindStringIndex(expr[i:])
			id := expr[i : i+loc[1]]
			prev := strings.TrimRight(expr[:i], " ")
			if !strings.HasSuffix(prev, ".") && !strings.HasSuffix(prev, "|") && !strings.HasSuffix(prev, " is") {
				ret = append(ret, id)
			}
			i += loc[1]
		case c >= '0' && c <= '9':
			for i < len(expr) && (expr[i] >= '0' && expr[i] <= '9' || expr[i] == '.') {
				i++
			}
		default:
			i++
		}
	}
	return ret
}
