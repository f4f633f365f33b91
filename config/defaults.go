// =============================================================================
// 📦 ComposeKit 默认配置
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/composekit/llm"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Compose:   DefaultComposeConfig(),
		Stream:    DefaultStreamConfig(),
		Provider:  DefaultProviderConfig(),
		Audit:     DefaultAuditConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultComposeConfig 返回默认 compose 配置
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		Temperature: llm.DefaultTemperature,
		MaxTokens:   0,
		Retries:     0,
		Redact:      true,
	}
}

// DefaultStreamConfig 返回默认流式配置
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		BufferSize:    4096,
		JSONDetection: true,
	}
}

// DefaultProviderConfig 返回默认 Provider 配置
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Name:    "mock",
		BaseURL: "https://api.openai.com",
		Model:   "gpt-4o-mini",
		Timeout: 2 * time.Minute,
	}
}

// DefaultAuditConfig 返回默认审计配置
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled: false,
		Driver:  "sqlite",
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Host:            "localhost",
			Name:            "composekit_audit.db",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Stream: "composekit:attempts",
			MaxLen: 10000,
		},
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "composekit",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Addr:      ":9091",
		Namespace: "composekit",
	}
}
