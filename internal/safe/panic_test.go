package safe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTry(t *testing.T) {
	t.Run("正常返回", func(t *testing.T) {
		assert.NoError(t, Try(func() error { return nil }))
	})

	t.Run("panic 转为错误", func(t *testing.T) {
		err := Try(func() error { panic("boom") })
		var pe *PanicError
		assert.True(t, errors.As(err, &pe))
		assert.Equal(t, "boom", pe.Value)
		assert.Contains(t, err.Error(), "panic error: boom")
	})

	t.Run("panic 值为 error 时可解包", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		err := Try(func() error { panic(sentinel) })
		assert.ErrorIs(t, err, sentinel)
	})
}
