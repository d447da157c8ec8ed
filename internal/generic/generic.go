package generic

import "reflect"

// TypeOf 返回类型参数 T 的 reflect.Type，接口类型同样适用。
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// PtrOf 返回 v 的指针。
func PtrOf[T any](v T) *T {
	return &v
}

// Zero 返回 T 的零值。
func Zero[T any]() T {
	var t T
	return t
}
