// Copyright (c) ComposeKit Authors.
// Licensed under the MIT License.

/*
Package workflow 串行编排多个 compose 步骤。

# 概述

Flow 按插入顺序执行步骤，每一步都通过 compose.Composer 生成并校验输出。
第 N 步的结果保存在键 "stepN" 下，并以 results 变量注入之后所有步骤的
模板作用域（注入的是快照，不是实时引用）。

任一步骤失败时返回 FLOW_STEP_FAILED，错误携带从 1 开始的步骤序号与
底层原因，整个 flow 终止。每次 Execute 都以新的运行 ID 从第 1 步重新开始；
失败后已完成步骤的结果可通过 Results 查看，直到下一次 Execute 或 Reset。
Reset 清空结果与游标，保留步骤配置。

# 核心类型

  - Flow：步骤序列与执行状态
  - Step：模板、变量、可选 Schema 与重试预算
  - Definition：YAML/JSON 形式的 flow 定义，可通过 NewFromDefinition 构造 Flow

# 示例

	f := workflow.New(provider).AddSteps(
		workflow.Step{Prompt: "Invent a product", Schema: schema},
		workflow.Step{Prompt: "Tagline for {{results.step1.name}}"},
	)
	results, err := f.Execute(ctx)
*/
package workflow
