package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constLambda(name string) *Lambda[int, string] {
	return InvokableLambda(func(_ context.Context, _ int) (string, error) {
		return name, nil
	}, WithLambdaName(name))
}

func condLambda(name string, cond func(int) bool) *Lambda[int, bool] {
	return InvokableLambda(func(_ context.Context, in int) (bool, error) {
		return cond(in), nil
	}, WithLambdaName(name))
}

func newTestBranch() *Branch[int, string] {
	return NewBranch[int, string](constLambda("other"),
		NewBranchCase[int, string](condLambda("is_negative", func(i int) bool { return i < 0 }), constLambda("negative")),
		NewBranchCase[int, string](condLambda("is_zero", func(i int) bool { return i == 0 }), constLambda("zero")))
}

func TestBranchInvoke(t *testing.T) {
	ctx := context.Background()
	br := newTestBranch()

	for in, want := range map[int]string{-3: "negative", 0: "zero", 7: "other"} {
		out, err := br.Invoke(ctx, in, nil)
		require.NoError(t, err)
		assert.Equal(t, want, out)

		out, err = br.AInvoke(ctx, in, nil)
		require.NoError(t, err)
		assert.Equal(t, want, out)

		sr, err := br.Stream(ctx, in, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{want}, drain(t, sr))
	}

	assert.Equal(t, "RunnableBranch", br.Name())
}

func TestBranchConditionError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	called := false

	br := NewBranch[int, string](InvokableLambda(func(_ context.Context, _ int) (string, error) {
		called = true
		return "", nil
	}), NewBranchCase[int, string](InvokableLambda(func(_ context.Context, _ int) (bool, error) {
		return false, boom
	}), constLambda("never")))

	_, err := br.Invoke(ctx, 1, nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestBranchTags(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	_, err := newTestBranch().Invoke(ctx, 0, NewConfig(WithCallbackHandlers(rec.handler())))
	require.NoError(t, err)

	neg, ok := rec.find("start", "is_negative")
	require.True(t, ok)
	assert.Equal(t, []string{"condition:1"}, neg.tags)

	zero, ok := rec.find("start", "is_zero")
	require.True(t, ok)
	assert.Equal(t, []string{"condition:2"}, zero.tags)

	chosen, ok := rec.find("start", "zero")
	require.True(t, ok)
	assert.Equal(t, []string{"branch:2"}, chosen.tags)

	_, ok = rec.find("start", "other")
	assert.False(t, ok)
}

func TestBranchGraph(t *testing.T) {
	g, err := newTestBranch().Graph(nil)
	require.NoError(t, err)

	// 输入、输出描述 + 三个分支
	assert.Equal(t, 5, g.Len())
	assert.Len(t, g.Edges(), 6)

	var labels []string
	for _, e := range g.Edges() {
		if e.Conditional {
			labels = append(labels, e.Data)
		}
	}
	assert.Equal(t, []string{"case 1", "case 2", "default"}, labels)
}
