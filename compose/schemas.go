package compose

import (
	"github.com/eino-contrib/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// objectSchema 只有标题的对象描述，作为默认输入输出描述。
func objectSchema(title string) *jsonschema.Schema {
	return &jsonschema.Schema{Title: title, Type: "object"}
}

// mergeProperties 按顺序合并多个描述的属性，同名属性后者覆盖前者。
func mergeProperties(schemas ...*jsonschema.Schema) *orderedmap.OrderedMap[string, *jsonschema.Schema] {
	props := orderedmap.New[string, *jsonschema.Schema]()
	for _, s := range schemas {
		if s == nil || s.Properties == nil {
			continue
		}
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			props.Set(pair.Key, pair.Value)
		}
	}
	return props
}
