// 版权所有 2026 ComposeKit Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 为审计存储提供 GORM 连接：按驱动选择方言
（postgres、mysql、纯 Go sqlite），应用连接池参数，并提供
带瞬时错误重试的事务封装。

# 核心函数

  - Open / Dialector / ConfigurePool / Close：连接生命周期
  - Transact：事务执行，死锁与序列化失败时指数退避重试
  - IsTransient：瞬时错误判定
*/
package database
