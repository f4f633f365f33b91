// 版权所有 2026 ComposeKit Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 CLI 附带的 HTTP 服务（指标导出与健康检查）的生命周期。

# 核心类型

  - Server：封装 net/http.Server 与 net.Listener，先 Listen 绑定端口，
    再由 Run 在 context 取消时优雅关闭。
  - Config：监听地址、读请求头超时与关闭超时。

# 主要能力

  - NewMetrics 在 /metrics 暴露 Prometheus Gatherer，在 /healthz 返回 ok。
  - Listen 支持 ":0" 随机端口，Addr 返回实际绑定地址。
  - Run 阻塞至 context 结束或服务异常退出，异常通过返回值传播。
*/
package server
