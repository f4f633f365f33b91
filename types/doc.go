// Copyright (c) ComposeKit Authors.
// Licensed under the MIT License.

/*
Package types 提供 composekit 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 structured、compose、
workflow、llm 等上层模块提供统一的错误契约与 Context 传播工具。

# 核心类型

  - Error / ErrorCode：结构化错误体系，含 Retryable、Provider、Step、Raw、Issues
  - Issue：单条抽取/校验问题（Path + Message）

# 错误码

  - UNSAFE_TEMPLATE：模板未通过安全检查，不可重试
  - NO_BLOCK_FOUND：文本中未找到结构化块，可重试
  - SCHEMA_MISMATCH：结构化块不符合 Descriptor，可重试
  - RETRY_BUDGET_EXHAUSTED：重试预算耗尽，携带最后一次的 Raw 与 Issues
  - FLOW_STEP_FAILED：包装任意失败并附带 1-based 步骤号
  - GENERATION_UNAVAILABLE：生成能力不可用，永不重试

# 主要能力

  - Context 传播：WithTraceID / WithRunID / WithFlowStep
  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode
*/
package types
