package prompt

/*
 * template.go - 字符串提示词模板
 *
 * Template 是输入为变量表、输出为字符串的可执行对象，支持三种格式：
 *   - FString：Python 风格的 {name}，由 pyfmt 渲染
 *   - GoTemplate：text/template 的 {{.name}}，缺失变量视为错误
 *   - Jinja2：{{ name }}，由 gonja 渲染，禁用 include、extends、import、from
 *
 * 模板变量在构造时解析，输入描述的属性即这些变量；已通过 Partial 固定的变量不是必填项。
 */

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/eino-contrib/jsonschema"
	"github.com/slongfield/pyfmt"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/eurora-labs/eurora-sub002/compose"
	"github.com/eurora-labs/eurora-sub002/internal/gmap"
)

// FormatType 模板格式。
type FormatType uint8

const (
	// FString Python 风格的字符串格式化 (PEP-3101)，由 pyfmt 实现。
	FString FormatType = 0
	// GoTemplate 标准库 text/template。
	GoTemplate FormatType = 1
	// Jinja2 由 gonja 实现。
	Jinja2 FormatType = 2
)

func (f FormatType) String() string {
	switch f {
	case FString:
		return "f-string"
	case GoTemplate:
		return "go-template"
	case Jinja2:
		return "jinja2"
	default:
		return fmt.Sprintf("FormatType(%d)", uint8(f))
	}
}

var (
	// ErrMissingVariables 渲染时缺少模板变量。
	ErrMissingVariables = errors.New("missing variables")

	// ErrUnknownFormat 不支持的模板格式。
	ErrUnknownFormat = errors.New("unknown format type")
)

type options struct {
	format   FormatType
	partials map[string]any
	name     string
}

// Option 模板选项。
type Option func(*options)

// WithFormat 指定模板格式，默认 FString。
func WithFormat(f FormatType) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithPartials 固定部分变量。
func WithPartials(vs map[string]any) Option {
	return func(o *options) {
		o.partials = gmap.Concat(o.partials, vs)
	}
}

// WithName 指定名称，默认 PromptTemplate。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Template 字符串提示词模板。
type Template struct {
	*compose.Lambda[map[string]any, string]

	template  string
	format    FormatType
	variables []string
	partials  map[string]any
	name      string
}

// New 解析模板并创建 Template。
//
//	tpl, err := prompt.New("tell me a joke about {topic}")
//	out, err := tpl.Invoke(ctx, map[string]any{"topic": "bears"}, nil)
func New(text string, opts ...Option) (*Template, error) {
	o := &options{format: FString, name: "PromptTemplate"}
	for _, opt := range opts {
		opt(o)
	}

	variables, err := parseVariables(text, o.format)
	if err != nil {
		return nil, err
	}

	t := &Template{
		template:  text,
		format:    o.format,
		variables: variables,
		partials:  o.partials,
		name:      o.name,
	}
	t.Lambda = compose.InvokableLambda(t.Format,
		compose.WithLambdaName(o.name),
		compose.WithLambdaInputSchema(t.inputSchema()),
		compose.WithLambdaOutputSchema(&jsonschema.Schema{Title: o.name + "Output", Type: "string"}))
	return t, nil
}

// FromFile 从文件读取模板。
func FromFile(path string, opts ...Option) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return New(string(data), opts...)
}

// Partial 返回固定了部分变量的新模板。
func (t *Template) Partial(vs map[string]any) (*Template, error) {
	return New(t.template, WithFormat(t.format), WithName(t.name), WithPartials(t.partials), WithPartials(vs))
}

// Variables 返回模板中引用的全部变量，按名称排序。
func (t *Template) Variables() []string {
	return append([]string(nil), t.variables...)
}

// InputVariables 返回渲染时必须提供的变量。
func (t *Template) InputVariables() []string {
	var ret []string
	for _, v := range t.variables {
		if _, ok := t.partials[v]; !ok {
			ret = append(ret, v)
		}
	}
	return ret
}

// Format 以变量渲染模板，vs 中的同名变量覆盖固定变量。
func (t *Template) Format(_ context.Context, vs map[string]any) (string, error) {
	merged := gmap.Concat(t.partials, vs)

	var missing []string
	for _, v := range t.variables {
		if _, ok := merged[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingVariables, strings.Join(missing, ", "))
	}

	return formatContent(t.template, merged, t.format)
}

func (t *Template) inputSchema() *jsonschema.Schema {
	props := orderedmap.New[string, *jsonschema.Schema]()
	for _, v := range t.variables {
		props.Set(v, &jsonschema.Schema{Title: v, Type: "string"})
	}
	return &jsonschema.Schema{
		Title:      t.name + "Input",
		Type:       "object",
		Properties: props,
		Required:   t.InputVariables(),
	}
}

// formatContent 按格式渲染。
func formatContent(content string, vs map[string]any, format FormatType) (string, error) {
	switch format {
	case FString:
		return pyfmt.Fmt(content, vs)
	case GoTemplate:
		tpl, err := template.New("template").
			Option("missingkey=error").
			Parse(content)
		if err != nil {
			return "", err
		}
		sb := new(strings.Builder)
		if err = tpl.Execute(sb, vs); err != nil {
			return "", err
		}
		return sb.String(), nil
	case Jinja2:
		env, err := getJinjaEnv()
		if err != nil {
			return "", err
		}
		tpl, err := env.FromString(content)
		if err != nil {
			return "", err
		}
		return tpl.Execute(vs)
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

func sortedUnique(names []string) []string {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	ret := make([]string, 0, len(set))
	for n := range set {
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}
