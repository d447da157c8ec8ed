package schema

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain[T any](t *testing.T, sr *StreamReader[T]) []T {
	t.Helper()
	defer sr.Close()

	var out []T
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, chunk)
	}
}

// 验证流的基础发送接收和读取端主动关闭
func TestPipe(t *testing.T) {
	sr, sw := Pipe[int](0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sw.Close()
		for i := 0; i < 10; i++ {
			if closed := sw.Send(i, nil); closed {
				return
			}
		}
	}()

	for i := 0; i < 5; i++ {
		v, err := sr.Recv()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	sr.Close()
	wg.Wait()

	_, err := sr.Recv()
	assert.ErrorIs(t, err, ErrRecvAfterClosed)
}

// 错误作为块随流传递，不终止序列
func TestPipeCarriesErrors(t *testing.T) {
	sr, sw := Pipe[string](3)
	boom := errors.New("boom")
	go func() {
		defer sw.Close()
		sw.Send("a", nil)
		sw.Send("", boom)
		sw.Send("b", nil)
	}()

	v, err := sr.Recv()
	assert.NoError(t, err)
	assert.Equal(t, "a", v)

	_, err = sr.Recv()
	assert.ErrorIs(t, err, boom)

	v, err = sr.Recv()
	assert.NoError(t, err)
	assert.Equal(t, "b", v)

	_, err = sr.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamReaderFromArray(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, drain(t, StreamReaderFromArray([]int{1, 2, 3})))
	assert.Empty(t, drain(t, StreamReaderFromArray([]int{})))
}

func TestStreamReaderWithConvert(t *testing.T) {
	t.Run("ErrNoValue 跳过当前块", func(t *testing.T) {
		sr := StreamReaderFromArray([]int{1, 2, 3, 4})
		odd := StreamReaderWithConvert(sr, func(i int) (string, error) {
			if i%2 == 0 {
				return "", ErrNoValue
			}
			return strconv.Itoa(i), nil
		})
		assert.Equal(t, []string{"1", "3"}, drain(t, odd))
	})

	t.Run("转换错误向下游传递", func(t *testing.T) {
		sr := StreamReaderFromArray([]int{1, 2})
		conv := StreamReaderWithConvert(sr, func(i int) (int, error) {
			if i == 2 {
				return 0, fmt.Errorf("bad chunk %d", i)
			}
			return i * 10, nil
		})
		defer conv.Close()

		v, err := conv.Recv()
		assert.NoError(t, err)
		assert.Equal(t, 10, v)

		_, err = conv.Recv()
		assert.EqualError(t, err, "bad chunk 2")
	})
}

func TestMergeStreamReaders(t *testing.T) {
	t.Run("少量流使用静态 select", func(t *testing.T) {
		srs := []*StreamReader[int]{
			StreamReaderFromArray([]int{1, 2}),
			StreamReaderFromArray([]int{3}),
			StreamReaderFromArray([]int{}),
		}
		got := drain(t, MergeStreamReaders(srs))
		sort.Ints(got)
		assert.Equal(t, []int{1, 2, 3}, got)
	})

	t.Run("超过 maxSelectNum 时退化为反射 select", func(t *testing.T) {
		var srs []*StreamReader[int]
		want := make([]int, 0, 20)
		for i := 0; i < 10; i++ {
			sr, sw := Pipe[int](2)
			go func(base int) {
				defer sw.Close()
				sw.Send(base, nil)
				sw.Send(base+100, nil)
			}(i)
			srs = append(srs, sr)
			want = append(want, i, i+100)
		}
		got := drain(t, MergeStreamReaders(srs))
		sort.Ints(got)
		sort.Ints(want)
		assert.Equal(t, want, got)
	})

	t.Run("空列表与单个流", func(t *testing.T) {
		assert.Nil(t, MergeStreamReaders[int](nil))
		single := StreamReaderFromArray([]int{7})
		assert.Same(t, single, MergeStreamReaders([]*StreamReader[int]{single}))
	})
}

// 复制后的子流各自完整地读取源数据
func TestStreamCopy(t *testing.T) {
	sr, sw := Pipe[string](0)
	go func() {
		defer sw.Close()
		for i := 0; i < 50; i++ {
			sw.Send(strconv.Itoa(i), nil)
		}
	}()

	copies := sr.Copy(3)
	require.Len(t, copies, 3)

	results := make([][]string, len(copies))
	var wg sync.WaitGroup
	for i, c := range copies {
		wg.Add(1)
		go func(i int, c *StreamReader[string]) {
			defer wg.Done()
			results[i] = drain(t, c)
		}(i, c)
	}
	wg.Wait()

	for _, r := range results {
		assert.Len(t, r, 50)
		assert.Equal(t, "0", r[0])
		assert.Equal(t, "49", r[49])
	}
}

func TestStreamCopySingle(t *testing.T) {
	sr := StreamReaderFromArray([]int{1})
	copies := sr.Copy(1)
	assert.Same(t, sr, copies[0])
}

func TestStreamReaderWithHooks(t *testing.T) {
	t.Run("逐块回调与结束回调", func(t *testing.T) {
		var seen []int
		eofCalls := 0
		sr := StreamReaderWithHooks(StreamReaderFromArray([]int{1, 2}),
			func(i int, err error) { seen = append(seen, i) },
			func() error { eofCalls++; return nil })

		assert.Equal(t, []int{1, 2}, drain(t, sr))
		assert.Equal(t, []int{1, 2}, seen)
		assert.Equal(t, 1, eofCalls)
	})

	t.Run("结束回调的错误代替 io.EOF 返回一次", func(t *testing.T) {
		hookErr := errors.New("hook failed")
		sr := StreamReaderWithHooks(StreamReaderFromArray([]string{"a"}), nil, func() error { return hookErr })
		defer sr.Close()

		_, err := sr.Recv()
		assert.NoError(t, err)
		_, err = sr.Recv()
		assert.ErrorIs(t, err, hookErr)
		_, err = sr.Recv()
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestChainStreamReaders(t *testing.T) {
	sr, sw := Pipe[int](2)
	go func() {
		defer sw.Close()
		sw.Send(3, nil)
		sw.Send(4, nil)
	}()

	chained := ChainStreamReaders(StreamReaderFromArray([]int{1, 2}), StreamReaderFromArray([]int{}), sr)
	assert.Equal(t, []int{1, 2, 3, 4}, drain(t, chained))
}
