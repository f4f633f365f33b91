// 版权所有 2026 ComposeKit Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 定义生成能力的统一接入层：Provider 抽象、请求/响应模型、
流式分片与调用选项。

# 概述

生成后端被视为不透明能力：给定 prompt 与选项，返回完整文本，或返回
有限、不可重放的文本分片序列。上层（compose、streaming、workflow）
只依赖 [Provider] 接口，不关心具体服务商。

# 核心接口

  - [Provider]：Completion / Stream / HealthCheck / Name

# 核心类型

  - [ChatRequest] / [ChatResponse]：请求与响应
  - [StreamChunk]：流式输出分片
  - [CompletionOptions]：temperature、max tokens、schema、重试预算
  - [Error]：带 HTTP 状态与可重试性的上游错误

# 辅助函数

  - [NormalizeOptions]：范围校验（temperature ∈ [0,1]，retries ∈ [0,3]）
  - [NewRequest]：由 prompt 与选项构造请求
  - [Text]：读取首个 choice 的文本
  - [Chunks]：把流式通道转换为 iter.Seq2 拉取序列

# 相关子包

- llm/providers/openaicompat：OpenAI 兼容协议的 HTTP 实现。
- llm/streaming：流式结构化块扫描器。
*/
package llm
