// 版权所有 2026 ComposeKit Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集，覆盖生成调用、
compose 重试、流式扫描、flow 步骤与审计写入。

# 概述

Collector 通过 promauto 注册指标，按 namespace 隔离。nil *Collector
可以安全调用，调用方无需判空。

# 主要指标

  - llm_requests_total / llm_request_duration_seconds / llm_tokens_used_total
  - compose_attempts_total{outcome=success|invalid|error}
  - compose_retries_total / compose_budget_exhausted_total
  - validation_failures_total{code}
  - stream_signals_total{kind} / stream_buffer_truncations_total
  - flow_steps_total / flow_step_duration_seconds
  - audit_writes_total / audit_write_duration_seconds
*/
package metrics
