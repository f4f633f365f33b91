// 版权所有 2026 ComposeKit Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package testutil 提供 ComposeKit 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertJSONEqual / AssertEventuallyTrue
  - 数据工具: MustJSON / MustParseJSON
  - 流式辅助: SendChunksToChannel / CollectText / RequireText

# 子包

  - testutil/mocks: MockProvider，支持 Builder 模式、脚本化响应、
    schema 回显与错误注入
  - testutil/fixtures: 测试数据工厂，提供 widget schema 与样例 JSON、
    ChatResponse、StreamChunk 与文本切分

# 使用示例

	ctx := testutil.TestContext(t)
	provider := mocks.NewMockProvider().WithResponse(fixtures.FencedWidget)
	res, err := compose.New(provider).Compose(ctx, req)
*/
package testutil
