package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEach(t *testing.T) {
	ctx := context.Background()
	each := Map[int, int](doubleLambda())

	out, err := each.Invoke(ctx, []int{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, out)

	out, err = each.AInvoke(ctx, []int{4, 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 10}, out)

	// 空列表
	out, err = each.Invoke(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{}, out)

	assert.Equal(t, "RunnableEach<double>", each.Name())
	assert.Equal(t, "array", each.InputSchema(nil).Type)
	assert.Equal(t, "double_input", each.InputSchema(nil).Items.Title)
}

func TestEachFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	each := Map[int, int](InvokableLambda(func(_ context.Context, in int) (int, error) {
		if in == 2 {
			return 0, boom
		}
		return in, nil
	}))

	_, err := each.Invoke(ctx, []int{1, 2, 3}, nil)
	assert.ErrorIs(t, err, boom)
	_, err = each.AInvoke(ctx, []int{1, 2, 3}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestEachChildRuns(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	_, err := Map[int, int](doubleLambda()).Invoke(ctx, []int{1, 2}, NewConfig(WithCallbackHandlers(rec.handler())))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start:RunnableEach<double>",
		"start:double",
		"end:double",
		"start:double",
		"end:double",
		"end:RunnableEach<double>",
	}, rec.phases())
}
