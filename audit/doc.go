// 版权所有 2026 ComposeKit Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 audit 持久化每一次生成尝试（提示词、原始输出、结果与问题列表），
供事后排查模型输出为何未通过校验。

写入的 Prompt 与 Raw 由调用方先经过 redact 脱敏。存储错误只记录
日志，不影响生成流程。

# 存储实现

  - NopStore：丢弃记录
  - GormStore：postgres / mysql / sqlite，表 compose_attempts
  - RedisStore：XADD 追加到 Stream，可按近似长度裁剪
  - Observe：为任意 Store 附加 Prometheus 写入指标
*/
package audit
