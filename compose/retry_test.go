package compose

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func zeroBackOff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

// flakyLambda 前 failures 次调用返回 errTransient。
func flakyLambda(failures int, calls *int) *Lambda[int, int] {
	return InvokableLambda(func(_ context.Context, in int) (int, error) {
		*calls++
		if *calls <= failures {
			return 0, errTransient
		}
		return in + 1, nil
	}, WithLambdaName("flaky"))
}

func TestRetryInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("第三次成功", func(t *testing.T) {
		var calls int
		r := WithRetry[int, int](flakyLambda(2, &calls), WithRetryBackOff(zeroBackOff))

		out, err := r.Invoke(ctx, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, out)
		assert.Equal(t, 3, calls)
		assert.Equal(t, "flaky", r.Name())
	})

	t.Run("达到最大次数", func(t *testing.T) {
		var calls int
		r := WithRetry[int, int](flakyLambda(10, &calls),
			WithRetryBackOff(zeroBackOff), WithStopAfterAttempt(4))

		_, err := r.AInvoke(ctx, 1, nil)
		assert.ErrorIs(t, err, errTransient)
		assert.Equal(t, 4, calls)
	})

	t.Run("不可重试的错误", func(t *testing.T) {
		fatal := errors.New("fatal")
		var calls int
		r := WithRetry[int, int](InvokableLambda(func(_ context.Context, _ int) (int, error) {
			calls++
			return 0, fatal
		}), WithRetryBackOff(zeroBackOff), WithRetryIf(func(err error) bool {
			return errors.Is(err, errTransient)
		}))

		_, err := r.Invoke(ctx, 1, nil)
		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryAttemptTags(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	var calls int

	r := WithRetry[int, int](flakyLambda(1, &calls), WithRetryBackOff(zeroBackOff))
	_, err := r.Invoke(ctx, 1, NewConfig(WithCallbackHandlers(rec.handler())))
	require.NoError(t, err)

	var tags [][]string
	for _, e := range rec.events {
		if e.phase == "start" && e.typ == "RunnableLambda" {
			tags = append(tags, e.tags)
		}
	}
	require.Len(t, tags, 2)
	assert.Empty(t, tags[0])
	assert.Equal(t, []string{"retry:attempt:2"}, tags[1])
}

func TestRetryBatch(t *testing.T) {
	ctx := context.Background()

	// 每个输入第一次都失败，奇数输入一直失败
	var mu sync.Mutex
	calls := map[int]int{}
	inner := InvokableLambda(func(_ context.Context, in int) (int, error) {
		mu.Lock()
		calls[in]++
		n := calls[in]
		mu.Unlock()
		if in == 1 || (in == 2 && n == 1) {
			return 0, errTransient
		}
		return in * 10, nil
	})

	r := WithRetry[int, int](inner, WithRetryBackOff(zeroBackOff), WithStopAfterAttempt(3))

	results, err := r.Batch(ctx, []int{0, 1, 2}, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 0, results[0].Value)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, errTransient)
	assert.Equal(t, 20, results[2].Value)

	// 只重试失败的输入
	assert.Equal(t, map[int]int{0: 1, 1: 3, 2: 2}, calls)

	_, err = r.ABatch(ctx, []int{1}, nil, false)
	assert.ErrorIs(t, err, errTransient)
}
