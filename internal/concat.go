package internal

/*
 * concat.go - 流块合并
 *
 * 流式输出需要还原为单个结果时（由流推导 Invoke、Assign 的 Transform 缓冲合并），
 * 按类型选择合并策略：
 *   - string：拼接
 *   - map[string]any：逐键相加（见 AddValues）
 *   - slice：依次拼接
 *   - 注册过合并函数的类型：调用注册函数
 *   - 其它：保留最后一块
 */

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/eurora-labs/eurora-sub002/internal/generic"
)

var (
	concatMu    sync.RWMutex
	concatFuncs = map[reflect.Type]any{
		generic.TypeOf[string]():         concatStrings,
		generic.TypeOf[map[string]any](): concatAddableMaps,
	}
)

// RegisterStreamChunkConcatFunc 为类型 T 注册流块合并函数，覆盖默认策略。
func RegisterStreamChunkConcatFunc[T any](fn func([]T) (T, error)) {
	concatMu.Lock()
	defer concatMu.Unlock()
	concatFuncs[generic.TypeOf[T]()] = fn
}

// ConcatItems 把多个流块合并为一个值。空切片返回零值。
func ConcatItems[T any](items []T) (T, error) {
	var zero T
	switch len(items) {
	case 0:
		return zero, nil
	case 1:
		return items[0], nil
	}

	concatMu.RLock()
	fn, ok := concatFuncs[generic.TypeOf[T]()]
	concatMu.RUnlock()
	if ok {
		typed, ok := fn.(func([]T) (T, error))
		if !ok {
			return zero, fmt.Errorf("concat func registered for %s has unexpected signature", generic.TypeOf[T]())
		}
		return typed(items)
	}

	if generic.TypeOf[T]().Kind() == reflect.Slice {
		rv := reflect.MakeSlice(generic.TypeOf[T](), 0, 0)
		for _, item := range items {
			rv = reflect.AppendSlice(rv, reflect.ValueOf(item))
		}
		return rv.Interface().(T), nil
	}

	return items[len(items)-1], nil
}

func concatStrings(ss []string) (string, error) {
	var n int
	for _, s := range ss {
		n += len(s)
	}

	var b strings.Builder
	b.Grow(n)
	for _, s := range ss {
		b.WriteString(s)
	}
	return b.String(), nil
}

func concatAddableMaps(ms []map[string]any) (map[string]any, error) {
	ret := make(map[string]any)
	for _, m := range ms {
		ret = AddMaps(ret, m)
	}
	return ret, nil
}

// AddMaps 返回 a 与 b 逐键相加的新 Map，b 独有的键直接加入。
func AddMaps(a, b map[string]any) map[string]any {
	ret := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		ret[k] = v
	}
	for k, v := range b {
		if old, ok := ret[k]; ok && old != nil {
			ret[k] = AddValues(old, v)
			continue
		}
		ret[k] = v
	}
	return ret
}

// AddValues 两个块值相加：字符串拼接，切片拼接，Map 递归合并，数字相加；
// 类型不匹配或不可相加时取 b。
func AddValues(a, b any) any {
	if b == nil {
		return a
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av + bv
		}
	case []any:
		if bv, ok := b.([]any); ok {
			ret := make([]any, 0, len(av)+len(bv))
			return append(append(ret, av...), bv...)
		}
	case map[string]any:
		if bv, ok := b.(map[string]any); ok {
			return AddMaps(av, bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return av + bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av + bv
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return av + bv
		case int:
			return av + float64(bv)
		}
	}

	return b
}
