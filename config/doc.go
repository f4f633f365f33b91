// Package config 提供 ComposeKit 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（前缀 COMPOSEKIT）的顺序叠加，
// 覆盖 compose 默认选项、流式扫描、生成后端、审计存储、日志、遥测与指标。
package config
