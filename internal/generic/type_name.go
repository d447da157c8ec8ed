package generic

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

var (
	regOfAnonymousFunc = regexp.MustCompile(`^func[0-9]+`)
	regOfNumber        = regexp.MustCompile(`^\d+$`)
)

// ParseTypeName 返回值的类型名，用于推导可执行对象的默认名称。
// 指针自动解引用；函数返回函数名，匿名函数返回空串。
//
//	ParseTypeName(reflect.ValueOf(&Sequence{}))   // "Sequence"
//	ParseTypeName(reflect.ValueOf(strings.ToUpper)) // "ToUpper"
//	ParseTypeName(reflect.ValueOf(func() {}))      // ""
func ParseTypeName(val reflect.Value) string {
	if !val.IsValid() {
		return ""
	}

	typ := val.Type()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Func {
		name := typ.Name()
		// 泛型类型名形如 Lambda[int,string]
		if idx := strings.Index(name, "["); idx > 0 {
			name = name[:idx]
		}
		return name
	}

	funcName := runtime.FuncForPC(val.Pointer()).Name()
	idx := strings.LastIndex(funcName, ".")
	if idx < 0 {
		return funcName
	}

	name := strings.TrimSuffix(funcName[idx+1:], "-fm")
	if regOfAnonymousFunc.MatchString(name) || regOfNumber.MatchString(name) {
		return ""
	}
	return name
}
