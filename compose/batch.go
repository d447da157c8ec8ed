package compose

/*
 * batch.go - 批量调用
 *
 * 同步批量按顺序逐个调用；异步批量为每个输入启动一个 goroutine，
 * 并发数取第一个配置的 MaxConcurrency（0 表示不限）。
 *
 *   - returnExceptions = false：第一个错误取消其余调用并作为整体错误返回
 *   - returnExceptions = true：每个输入的错误记录在对应 Result 中，整体不报错
 *
 * 无论哪种方式，结果顺序与输入顺序一致。
 */

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/eurora-labs/eurora-sub002/internal/safe"
)

func batchByInvoke[I, O any](invoke invokeFunc[I, O]) batchFunc[I, O] {
	return func(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error) {
		configs, err := GetConfigList(cfgs, len(inputs))
		if err != nil {
			return nil, err
		}

		results := make([]Result[O], len(inputs))
		for i := range inputs {
			out, err := invoke(ctx, inputs[i], configs[i])
			if err != nil && !returnExceptions {
				return nil, err
			}
			results[i] = Result[O]{Value: out, Err: err}
		}
		return results, nil
	}
}

func abatchByInvoke[I, O any](ainvoke invokeFunc[I, O]) batchFunc[I, O] {
	return func(ctx context.Context, inputs []I, cfgs []*Config, returnExceptions bool) ([]Result[O], error) {
		configs, err := GetConfigList(cfgs, len(inputs))
		if err != nil {
			return nil, err
		}

		return gather(ctx, maxConcurrencyOf(configs), len(inputs), returnExceptions,
			func(ctx context.Context, i int) (O, error) {
				return ainvoke(ctx, inputs[i], configs[i])
			})
	}
}

func maxConcurrencyOf(configs []*Config) int {
	if len(configs) == 0 {
		return 0
	}
	return configs[0].MaxConcurrency
}

// gather 并发执行 fn(0..n-1)，limit > 0 时限制同时运行的数量。
// goroutine 中的 panic 转为 *safe.PanicError。
func gather[O any](ctx context.Context, limit, n int, returnExceptions bool,
	fn func(ctx context.Context, i int) (O, error)) ([]Result[O], error) {

	results := make([]Result[O], n)
	if n == 0 {
		return results, nil
	}

	if !returnExceptions {
		eg, egCtx := errgroup.WithContext(ctx)
		if limit > 0 {
			eg.SetLimit(limit)
		}
		for i := 0; i < n; i++ {
			i := i
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				return safe.Try(func() error {
					out, err := fn(egCtx, i)
					if err != nil {
						return err
					}
					results[i].Value = out
					return nil
				})
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	}

	var sem *semaphore.Weighted
	if limit > 0 {
		sem = semaphore.NewWeighted(int64(limit))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				for j := i; j < n; j++ {
					results[j].Err = err
				}
				break
			}
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if sem != nil {
				defer sem.Release(1)
			}

			var out O
			err := safe.Try(func() error {
				var err error
				out, err = fn(ctx, i)
				return err
			})
			results[i] = Result[O]{Value: out, Err: err}
		}(i)
	}
	wg.Wait()

	return results, nil
}
