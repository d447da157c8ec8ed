/*
 * compose 包 - 可执行对象的组合与调用
 *
 * 概述：
 *   所有可执行对象实现同一个 Runnable[I, O] 接口，
 *   组合结构本身也是 Runnable，可以继续参与组合。
 *
 * 四种调用模式：
 *
 *   1. Invoke / AInvoke
 *      输入：普通值 → 输出：普通值
 *
 *   2. Batch / ABatch
 *      输入：值列表 → 输出：结果列表，顺序与输入一致
 *      ABatch 的并发数取第一个配置的 MaxConcurrency
 *
 *   3. Stream / AStream
 *      输入：普通值 → 输出：流
 *
 *   4. Transform / ATransform
 *      输入：流 → 输出：流
 *
 *   实现者只需提供 Invoke、Stream、Transform 之一，其余模式自动推导。
 *
 * 组合算子：
 *   - Pipe / Pipe3：顺序组合，前一步的输出是后一步的输入
 *   - Parallel：同一输入交给多个命名分支，输出 Map
 *   - Each：对列表逐个调用
 *   - Bind / WithConfig：固定参数或配置
 *   - Passthrough / Assign / Pick：Map 形态数据的透传、追加与挑选
 *   - Branch：按条件选择分支
 *   - WithFallbacks / WithRetry / WithListeners：失败回退、重试与运行监听
 *   - ConfigurableFields / ConfigurableAlternatives：按配置在运行时替换对象
 *
 * 配置与回调：
 *   Config 在组合结构中逐层向下传递，组合节点为子调用派生新配置，不修改原配置。
 *   每次运行触发 OnChainStart 与 OnChainEnd / OnChainError，子运行通过 ParentRunID 关联父运行。
 *
 * 自省：
 *   InputSchema / OutputSchema 返回 JSON Schema，Graph 返回组合结构的节点图，
 *   可渲染为 Mermaid：
 *
 *      g, _ := chain.Graph(nil)
 *      text, _ := g.DrawMermaid()
 *
 * 快速开始：
 *
 *      double := compose.InvokableLambda(func(ctx context.Context, in int) (int, error) {
 *        return in * 2, nil
 *      })
 *      format := compose.InvokableLambda(func(ctx context.Context, in int) (string, error) {
 *        return strconv.Itoa(in), nil
 *      })
 *
 *      chain := compose.Pipe(double, format)
 *      out, _ := chain.Invoke(ctx, 21, nil) // "42"
 */

package compose
