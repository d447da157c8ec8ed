// Package callbacks 定义可执行对象的生命周期回调。
//
// 可执行对象在开始、结束、出错时调用 Handler，回调处理器只做旁路观测
// （日志、追踪、指标），其返回的 context 会继续传给子调用，但不影响执行结果。
//
// 处理器通过 Manager 挂在调用配置上随调用树向下传递：
//
//	handler := callbacks.NewHandlerBuilder().
//		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
//			log.Printf("start %s", info.Name)
//			return ctx
//		}).
//		Build()
//
//	cfg := compose.NewConfig(compose.WithCallbacks(callbacks.NewManager(handler)))
//	out, err := runnable.Invoke(ctx, input, cfg)
//
// 子调用通过 RunManager.Child 得到新的 Manager，ParentRunID 指向父运行，
// 标签按“可继承/仅本级”区分。
package callbacks
