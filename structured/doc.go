// Copyright 2026 ComposeKit Authors
// Use of this source code is governed by the project license.

/*
# 概述

包 structured 负责从模型输出的自由文本中抽取结构化块，并按 Descriptor 做
逐字段校验，产出类型化的值或结构化的失败结果。

# 主要类型

  - Descriptor：封闭的形状描述（Object/Array/String/Number/Boolean/Enum）
  - Result：抽取校验结果（Success 或 Failure，Failure 保留原始文本）
  - Definition：Descriptor 的 JSON/YAML 文档形式，便于在文件中声明

# 主要能力

  - ExtractEmbeddedBlock：先找围栏代码块，再找第一个顶层 {} 或 [] 区域
  - Validate：解析并校验，每个问题对应一条 Issue
  - RenderHint：确定性地渲染重试提示
  - MockValue：按 Descriptor 生成符合约束的示例值

# 典型用法

	d := structured.Object(
		structured.F("name", structured.String()),
		structured.F("price", structured.Number()),
	)
	res := structured.Validate(text, d)
	if !res.OK() {
		hint := structured.RenderHint(d)
	}
*/
package structured
