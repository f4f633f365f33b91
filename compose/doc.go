// 版权所有 2026 ComposeKit Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 compose 实现带 Schema 校验的生成重试循环。

Composer 先对模板做安全检查，再插值变量并调用 llm.Provider。
输出经 structured.Validate 提取与校验；失败时把 Schema 提示追加到
上一轮提示词之后重新生成，直到成功或重试预算耗尽。

只有输出形状错误会被重试。模板不安全、选项非法、生成能力不可用
都立即返回。

# 使用示例

	c := compose.New(provider, compose.WithLogger(logger))
	opts := llm.DefaultCompletionOptions()
	opts.Schema = schema
	opts.Retries = 2
	res, err := c.Compose(ctx, compose.NewRequest("Describe {{item}}", vars, opts))
*/
package compose
