package gmap

/*
 * gmap.go - Map 工具函数
 *
 * 所有函数返回新 Map，不修改入参（浅拷贝）。
 * 配置合并、Assign 输出合并等场景依赖这里的“后者覆盖前者”语义。
 */

import "sort"

// Concat 合并多个 Map，键冲突时后面的值覆盖前面的值。总是返回非 nil Map。
//
//	Concat(map[string]int{"a": 1}, map[string]int{"a": 2, "b": 3}) ⏩ {"a": 2, "b": 3}
func Concat[K comparable, V any](ms ...map[K]V) map[K]V {
	size := 0
	for _, m := range ms {
		size += len(m)
	}

	ret := make(map[K]V, size)
	for _, m := range ms {
		for k, v := range m {
			ret[k] = v
		}
	}
	return ret
}

// Clone 浅拷贝，nil 输入返回 nil。
func Clone[K comparable, V any, M ~map[K]V](m M) M {
	if m == nil {
		return nil
	}
	ret := make(M, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

// SortedKeys 返回排好序的键，用于需要稳定输出的场景。
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
