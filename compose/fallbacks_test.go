package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurora-labs/eurora-sub002/schema"
)

// failingLambda 总是返回 err，并统计调用次数。
func failingLambda[I, O any](name string, err error, calls *int) *Lambda[I, O] {
	return InvokableLambda(func(_ context.Context, _ I) (O, error) {
		*calls++
		var o O
		return o, err
	}, WithLambdaName(name))
}

func TestFallbacksInvoke(t *testing.T) {
	ctx := context.Background()
	errA := errors.New("primary down")
	errB := errors.New("backup down")

	t.Run("返回第一个成功的结果", func(t *testing.T) {
		var calls int
		f := WithFallbacks[int, int](failingLambda[int, int]("primary", errA, &calls),
			[]Runnable[int, int]{doubleLambda()})

		out, err := f.Invoke(ctx, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, 8, out)

		out, err = f.AInvoke(ctx, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, 10, out)
		assert.Equal(t, 2, calls)
	})

	t.Run("全部失败时返回最后一个错误", func(t *testing.T) {
		var calls int
		f := WithFallbacks[int, int](failingLambda[int, int]("primary", errA, &calls),
			[]Runnable[int, int]{failingLambda[int, int]("backup", errB, &calls)})

		_, err := f.Invoke(ctx, 1, nil)
		assert.ErrorIs(t, err, errB)
		assert.Equal(t, 2, calls)
	})

	t.Run("不处理的错误直接返回", func(t *testing.T) {
		var calls, backupCalls int
		f := WithFallbacks[int, int](failingLambda[int, int]("primary", errA, &calls),
			[]Runnable[int, int]{failingLambda[int, int]("backup", errB, &backupCalls)},
			WithExceptionsToHandle(func(err error) bool { return errors.Is(err, errB) }))

		_, err := f.Invoke(ctx, 1, nil)
		assert.ErrorIs(t, err, errA)
		assert.Equal(t, 0, backupCalls)
	})
}

func TestFallbacksExceptionKey(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	var calls int
	var got any
	backup := InvokableLambda(func(_ context.Context, in map[string]any) (string, error) {
		got = in["exception"]
		return "recovered:" + in["q"].(string), nil
	})

	f := WithFallbacks[map[string]any, string](failingLambda[map[string]any, string]("primary", boom, &calls),
		[]Runnable[map[string]any, string]{backup}, WithExceptionKey("exception"))

	input := map[string]any{"q": "hi"}
	out, err := f.Invoke(ctx, input, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered:hi", out)
	assert.Equal(t, boom, got)
	// 原始输入不被修改
	assert.NotContains(t, input, "exception")

	// 输入不是 map 时报错
	var n int
	nf := WithFallbacks[int, int](failingLambda[int, int]("primary", boom, &n),
		[]Runnable[int, int]{doubleLambda()}, WithExceptionKey("exception"))
	_, err = nf.Invoke(ctx, 1, nil)
	assert.ErrorIs(t, err, ErrExceptionKeyInput)
}

func TestFallbacksStream(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	// 建立流时即失败
	broken := StreamableLambda(func(_ context.Context, _ string) (*schema.StreamReader[string], error) {
		return nil, boom
	}, WithLambdaName("broken"))

	// 第一块就是错误
	firstChunkErr := StreamableLambda(func(_ context.Context, _ string) (*schema.StreamReader[string], error) {
		sr, sw := schema.Pipe[string](1)
		go func() {
			defer sw.Close()
			sw.Send("", boom)
		}()
		return sr, nil
	}, WithLambdaName("first_chunk_err"))

	good := StreamableLambda(func(_ context.Context, in string) (*schema.StreamReader[string], error) {
		return schema.StreamReaderFromArray([]string{in, "!", "!"}), nil
	}, WithLambdaName("good"))

	f := WithFallbacks[string, string](broken, []Runnable[string, string]{firstChunkErr, good})

	sr, err := f.Stream(ctx, "ok", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "!", "!"}, drain(t, sr))

	sr, err = f.AStream(ctx, "ok", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "!", "!"}, drain(t, sr))

	// 全部失败
	_, err = WithFallbacks[string, string](broken, []Runnable[string, string]{firstChunkErr}).Stream(ctx, "x", nil)
	assert.ErrorIs(t, err, boom)
}

func TestFallbacksTags(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	var calls int

	f := WithFallbacks[int, int](failingLambda[int, int]("primary", errors.New("x"), &calls),
		[]Runnable[int, int]{doubleLambda()})
	_, err := f.Invoke(ctx, 1, NewConfig(WithCallbackHandlers(rec.handler())))
	require.NoError(t, err)

	p, ok := rec.find("start", "primary")
	require.True(t, ok)
	assert.Equal(t, []string{"fallback:primary"}, p.tags)

	d, ok := rec.find("start", "double")
	require.True(t, ok)
	assert.Equal(t, []string{"fallback:1"}, d.tags)
}

func TestFallbacksGraph(t *testing.T) {
	var calls int
	primary := Pipe[int, int, string](doubleLambda(), itoaLambda())
	f := WithFallbacks[int, string](primary,
		[]Runnable[int, string]{failingLambda[int, string]("backup", errors.New("x"), &calls)})

	// 图与主对象一致
	g, err := f.Graph(nil)
	require.NoError(t, err)

	names := make([]string, 0, g.Len())
	for _, n := range g.Nodes() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"double_input", "double", "itoa", "itoa_output"}, names)
	assert.Len(t, g.Edges(), 3)
}
