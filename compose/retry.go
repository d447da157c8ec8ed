package compose

/*
 * retry.go - 失败重试
 *
 * WithRetry 在被包装对象失败时按退避策略重试，默认最多尝试 3 次，
 * 等待时间为带随机抖动的指数退避。Batch 只重试失败的输入。
 * 第 n 次（n > 1）尝试的子调用带有标签 retry:attempt:n。
 */

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type retryOptions struct {
	stopAfterAttempt int
	retryIf          func(error) bool
	newBackOff       func() backoff.BackOff
}

// RetryOpt 重试选项。
type RetryOpt func(*retryOptions)

// WithStopAfterAttempt 最多尝试次数，包括第一次。
func WithStopAfterAttempt(n int) RetryOpt {
	return func(o *retryOptions) {
		o.stopAfterAttempt = n
	}
}

// WithRetryIf 只重试满足条件的错误，默认重试所有错误。
func WithRetryIf(retryIf func(error) bool) RetryOpt {
	return func(o *retryOptions) {
		o.retryIf = retryIf
	}
}

// WithWaitExponentialJitter 指数退避，initial 为首次等待时间，max 为单次等待上限。
func WithWaitExponentialJitter(initial, max time.Duration) RetryOpt {
	return func(o *retryOptions) {
		o.newBackOff = func() backoff.BackOff {
			return &backoff.ExponentialBackOff{
				InitialInterval:     initial,
				RandomizationFactor: backoff.DefaultRandomizationFactor,
				Multiplier:          2,
				MaxInterval:         max,
			}
		}
	}
}

// WithRetryBackOff 使用自定义退避策略，每次调用前会 Reset。
func WithRetryBackOff(newBackOff func() backoff.BackOff) RetryOpt {
	return func(o *retryOptions) {
		o.newBackOff = newBackOff
	}
}

// Retry 带重试的可执行对象。
type Retry[I, O any] struct {
	*base[I, O]

	inner Runnable[I, O]
	opts  *retryOptions
}

// WithRetry 为 r 添加重试。
func WithRetry[I, O any](r Runnable[I, O], opts ...RetryOpt) *Retry[I, O] {
	o := &retryOptions{stopAfterAttempt: 3}
	WithWaitExponentialJitter(time.Second, time.Minute)(o)
	for _, opt := range opts {
		opt(o)
	}
	if o.stopAfterAttempt < 1 {
		o.stopAfterAttempt = 1
	}

	rt := &Retry[I, O]{
		base:  newBase[I, O]("RunnableRetry"),
		inner: r,
		opts:  o,
	}
	rt.defaultName = r.Name

	rt.invoke = rt.invokeWith(r.Invoke)
	rt.ainvoke = rt.invokeWith(r.AInvoke)
	rt.batch = rt.batchWith(r.Batch)
	rt.abatch = rt.batchWith(r.ABatch)

	rt.inputSchema = r.InputSchema
	rt.outputSchema = r.OutputSchema
	rt.graph = r.Graph
	rt.configSpecs = r.ConfigSpecs

	rt.complete()
	return rt
}

func (r *Retry[I, O]) shouldRetry(err error) bool {
	if r.opts.retryIf == nil {
		return true
	}
	return r.opts.retryIf(err)
}

func attemptConfig(cfg *Config, attempt int) *Config {
	if attempt <= 1 {
		return PatchConfig(cfg)
	}
	return childConfig(cfg, fmt.Sprintf("retry:attempt:%d", attempt))
}

func (r *Retry[I, O]) invokeWith(call invokeFunc[I, O]) invokeFunc[I, O] {
	return func(ctx context.Context, input I, cfg *Config) (O, error) {
		attempt := 0
		out, err := backoff.Retry(ctx, func() (O, error) {
			attempt++
			out, err := call(ctx, input, attemptConfig(cfg, attempt))
			if err != nil && !r.shouldRetry(err) {
				return out, backoff.Permanent(err)
			}
			return out, err
		},
			backoff.WithBackOff(r.opts.newBackOff()),
			backoff.WithMaxTries(uint(r.opts.stopAfterAttempt)),
			backoff.WithMaxElapsedTime(0),
		)

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		return out, err
	}
}

// batchWith 每一轮只把仍然失败且可重试的输入交给被包装对象。
func (r *Retry[I, O]) batchWith(call batchFunc[I, O]) batchFunc[I, O] {
	return func(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error) {
		configs, err := GetConfigList(cfgs, len(inputs))
		if err != nil {
			return nil, err
		}

		results := make([]Result[O], len(inputs))
		pending := make([]int, len(inputs))
		for i := range pending {
			pending[i] = i
		}

		b := r.opts.newBackOff()
		b.Reset()

		for attempt := 1; len(pending) > 0; attempt++ {
			ins := make([]I, len(pending))
			attemptCfgs := make([]*Config, len(pending))
			for j, idx := range pending {
				ins[j] = inputs[idx]
				attemptCfgs[j] = attemptConfig(configs[idx], attempt)
			}

			rs, err := call(ctx, ins, attemptCfgs, true)
			if err != nil {
				return nil, err
			}

			var failed []int
			for j, idx := range pending {
				results[idx] = rs[j]
				if rs[j].Err != nil && r.shouldRetry(rs[j].Err) {
					failed = append(failed, idx)
				}
			}
			pending = failed

			if len(pending) == 0 || attempt >= r.opts.stopAfterAttempt {
				break
			}
			next := b.NextBackOff()
			if next == backoff.Stop {
				break
			}
			if err := wait(ctx, next); err != nil {
				return nil, err
			}
		}

		if !returnExceptions {
			for _, res := range results {
				if res.Err != nil {
					return nil, res.Err
				}
			}
		}
		return results, nil
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
