package safe

import (
	"fmt"
	"runtime/debug"
)

// PanicError 携带 panic 值与堆栈的错误。
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic error: %v, \nstack: %s", p.Value, string(p.Stack))
}

// Unwrap 当 panic 值本身是 error 时暴露它，便于 errors.Is 判断。
func (p *PanicError) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// NewPanicErr 包装 recover 得到的值和当时的堆栈。
func NewPanicErr(info any, stack []byte) error {
	return &PanicError{Value: info, Stack: stack}
}

// Try 执行 fn，把其中的 panic 转换成 *PanicError 返回。
func Try(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPanicErr(r, debug.Stack())
		}
	}()
	return fn()
}
