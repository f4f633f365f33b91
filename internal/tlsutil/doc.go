// Package tlsutil 提供集中式 TLS 配置，
// 供 OpenAI 兼容客户端与 Redis 审计存储使用（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
