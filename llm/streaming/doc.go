// 版权所有 2026 ComposeKit Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 streaming 在模型流式输出到达的同时检测其中的 fenced JSON 代码块。

# 概述

Scanner 对每个 chunk 先原样发出 Token 信号，再把它追加到有界缓冲区，
检测第一个完整代码块，解析并按 Schema 校验后发出 Structured 或 Error。
匹配到的区间会从缓冲区移除，同一代码块不会重复发出。流结束时 Finish
做最后一次扫描并发出 End。

# 边界行为

  - 缓冲区超出上限时只保留末尾内容，较早的文本直接丢弃
  - 每次扫描只取第一个代码块，同一窗口里的第二个代码块要等下一次扫描
  - 消费方提前停止迭代后，调用方仍需调用 Finish

# 核心函数

  - NewScanner / Scanner.Push / Scanner.Finish：逐块驱动
  - Scan：把 iter.Seq2[string, error] 转换为 iter.Seq[Signal]
  - Collect：消费整个流，返回文本、结构化值与扫描错误
*/
package streaming
