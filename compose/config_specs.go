package compose

/*
 * config_specs.go - 可配置项描述
 *
 * 核心组件：
 *   - ConfigurableFieldSpec：一个运行时可配置项的描述，由 ConfigSpecs 汇总上报
 *   - ConfigurableField / ConfigurableFieldSingleOption / ConfigurableFieldMultiOption：
 *     声明可配置字段的三种方式，供 NewConfigurableFields 使用
 *   - GetUniqueConfigSpecs：按标识去重，冲突时报错
 *   - PrefixConfigSpec：为非共享的描述加命名空间前缀
 */

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/eurora-labs/eurora-sub002/internal/gmap"
)

// ConfigurableFieldSpec 可配置项描述。
type ConfigurableFieldSpec struct {
	ID          string `json:"id"`
	Annotation  string `json:"annotation"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	IsShared    bool   `json:"is_shared,omitempty"`
	// Dependencies 该项依赖的其它配置标识
	Dependencies []string `json:"dependencies,omitempty"`
}

// AnyConfigurableField 可配置字段声明，由本包的三种字段类型实现。
type AnyConfigurableField interface {
	fieldID() string
	spec() ConfigurableFieldSpec
	// resolve 把配置中的取值解析为字段的值
	resolve(v any) (any, error)
}

// ConfigurableField 取值直接作为字段值。
type ConfigurableField struct {
	ID          string
	Name        string
	Description string
	// Annotation 取值类型说明，如 float、string，为空时为 Any
	Annotation string
	Default    any
	IsShared   bool
}

func (f ConfigurableField) fieldID() string { return f.ID }

func (f ConfigurableField) spec() ConfigurableFieldSpec {
	annotation := f.Annotation
	if annotation == "" {
		annotation = "Any"
	}
	return ConfigurableFieldSpec{
		ID:          f.ID,
		Annotation:  annotation,
		Name:        f.Name,
		Description: f.Description,
		Default:     f.Default,
		IsShared:    f.IsShared,
	}
}

func (f ConfigurableField) resolve(v any) (any, error) { return v, nil }

// ConfigurableFieldSingleOption 取值为选项名，字段值为对应选项。
type ConfigurableFieldSingleOption struct {
	ID          string
	Options     map[string]any
	Default     string
	Name        string
	Description string
	IsShared    bool
}

func (f ConfigurableFieldSingleOption) fieldID() string { return f.ID }

func (f ConfigurableFieldSingleOption) spec() ConfigurableFieldSpec {
	return ConfigurableFieldSpec{
		ID:          f.ID,
		Annotation:  enumAnnotation(gmap.SortedKeys(f.Options)),
		Name:        f.Name,
		Description: f.Description,
		Default:     f.Default,
		IsShared:    f.IsShared,
	}
}

func (f ConfigurableFieldSingleOption) resolve(v any) (any, error) {
	key := fmt.Sprint(v)
	opt, ok := f.Options[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s for field %s", ErrUnknownOption, key, f.ID)
	}
	return opt, nil
}

// ConfigurableFieldMultiOption 取值为选项名列表，字段值为对应选项的列表。
type ConfigurableFieldMultiOption struct {
	ID          string
	Options     map[string]any
	Default     []string
	Name        string
	Description string
	IsShared    bool
}

func (f ConfigurableFieldMultiOption) fieldID() string { return f.ID }

func (f ConfigurableFieldMultiOption) spec() ConfigurableFieldSpec {
	return ConfigurableFieldSpec{
		ID:          f.ID,
		Annotation:  "Sequence[" + enumAnnotation(gmap.SortedKeys(f.Options)) + "]",
		Name:        f.Name,
		Description: f.Description,
		Default:     append([]string(nil), f.Default...),
		IsShared:    f.IsShared,
	}
}

func (f ConfigurableFieldMultiOption) resolve(v any) (any, error) {
	var keys []string
	switch vv := v.(type) {
	case []string:
		keys = vv
	case []any:
		for _, k := range vv {
			keys = append(keys, fmt.Sprint(k))
		}
	case string:
		keys = []string{vv}
	default:
		return nil, fmt.Errorf("%w: %v for field %s", ErrUnknownOption, v, f.ID)
	}

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		opt, ok := f.Options[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s for field %s", ErrUnknownOption, k, f.ID)
		}
		out = append(out, opt)
	}
	return out, nil
}

// enumAnnotation 形如 Enum[a, b]。
func enumAnnotation(values []string) string {
	return "Enum[" + strings.Join(values, ", ") + "]"
}

// PrefixConfigSpec 非共享描述的标识改为 prefix/id。
func PrefixConfigSpec(spec ConfigurableFieldSpec, prefix string) ConfigurableFieldSpec {
	if spec.IsShared {
		return spec
	}
	spec.ID = prefix + "/" + spec.ID
	return spec
}

// GetUniqueConfigSpecs 按标识排序去重。同一标识的描述必须完全相同，否则返回 ErrConflictingConfigSpecs。
func GetUniqueConfigSpecs(specs []ConfigurableFieldSpec) ([]ConfigurableFieldSpec, error) {
	sorted := append([]ConfigurableFieldSpec(nil), specs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		return strings.Join(sorted[i].Dependencies, ",") < strings.Join(sorted[j].Dependencies, ",")
	})

	unique := make([]ConfigurableFieldSpec, 0, len(sorted))
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].ID == sorted[i].ID {
			j++
		}

		first := sorted[i]
		for _, other := range sorted[i+1 : j] {
			if !reflect.DeepEqual(first, other) {
				return nil, fmt.Errorf("%w for %s: %v", ErrConflictingConfigSpecs, first.ID, sorted[i:j])
			}
		}
		unique = append(unique, first)
		i = j
	}
	return unique, nil
}
